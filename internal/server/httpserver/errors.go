package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/gin-gonic/gin"
)

// statusOf maps a service error to an HTTP status and the message shown to
// the caller. Unknown errors become a generic 500.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidTarget):
		return http.StatusBadRequest, common.ErrInvalidTarget.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, common.ErrSessionExpired):
		return http.StatusUnauthorized, common.ErrSessionExpired.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, common.ErrTokenExpired.Error()
	case errors.Is(err, common.ErrUnauthenticated),
		errors.Is(err, common.ErrInvalidSignature),
		errors.Is(err, common.ErrMalformedToken):
		return http.StatusUnauthorized, common.ErrUnauthenticated.Error()
	case errors.Is(err, common.ErrTargetNotFound):
		return http.StatusNotFound, common.ErrTargetNotFound.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "email is already registered"
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, common.ErrRateLimited.Error()
	default:
		return http.StatusInternalServerError, common.ErrInternal.Error()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code, msg := statusOf(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"success": false, "message": msg})
}
