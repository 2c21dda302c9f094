package middleware

import (
	"net/http"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-Id"

// Logging attaches a request scoped logger to the request context and logs
// one line per request once the handler chain has run.
func Logging(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, reqID)
		}
		c.Header(RequestIDHeader, reqID)

		l := base.With().
			Str("req_id", reqID).
			Str("method", c.Request.Method).
			Str("remote", c.ClientIP()).
			Logger()
		c.Request = c.Request.WithContext(logging.WithCtx(c.Request.Context(), l))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = l.Error()
		case status >= http.StatusBadRequest:
			evt = l.Warn()
		default:
			evt = l.Info()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("error", c.Errors.String())
		}
		evt.Str("path", path).
			Int("status", status).
			Int64("dur_ms", time.Since(start).Milliseconds()).
			Int("resp_bytes", c.Writer.Size()).
			Msg("http_request")
	}
}
