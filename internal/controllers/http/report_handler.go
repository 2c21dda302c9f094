package http

import (
	"net/http"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/controllers/http/middleware"

	"github.com/gin-gonic/gin"
)

const (
	reportDateLayout   = "2006-01-02"
	defaultReportRange = 30 * 24 * time.Hour
)

// SalesReport takes ?from=YYYY-MM-DD&to=YYYY-MM-DD, both days inclusive.
// The range defaults to the last 30 days.
func (h *Handler) SalesReport(c *gin.Context) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	to := today.Add(24 * time.Hour)
	from := to.Add(-defaultReportRange)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(reportDateLayout, v)
		if err != nil {
			badRequest(c, err)
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(reportDateLayout, v)
		if err != nil {
			badRequest(c, err)
			return
		}
		to = t.Add(24 * time.Hour)
	}

	rep, err := h.reports.SalesReport(c.Request.Context(), middleware.Principal(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
