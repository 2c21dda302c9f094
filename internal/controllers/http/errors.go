package http

import (
	"errors"
	"net/http"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/logging"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrInvalidIdentifier),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrStaleOrder):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error for err. Infrastructure failures are
// logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	writeError(c, statusFor(err), err)
}

// respondCommandError is respondError for write endpoints, where a missing
// order or product is a bad request rather than a missing resource.
func respondCommandError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		status = http.StatusBadRequest
	}
	writeError(c, status, err)
}

func writeError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		logging.FromCtx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"error": err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
