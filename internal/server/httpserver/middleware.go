package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

var (
	protectedPages = []string{"/browse", "/matches", "/profile", "/settings", "/onboarding"}
	authEntryPages = []string{"/login", "/signup"}
)

const (
	loginPage   = "/login"
	landingPage = "/browse"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// requireAccess guards API routes. An expired access token gets its own
// message so clients know to refresh rather than log in again.
func (s *Server) requireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenCookie(c, AccessCookie)
		if token == "" {
			s.fail(c, common.ErrUnauthenticated)
			return
		}

		user, err := s.users.CheckAccess(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			return
		}

		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// pageGate decides whether a page request may proceed. It only reads the
// cookies and never refreshes or clears them.
func (s *Server) pageGate(authEntry bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		access := tokenCookie(c, AccessCookie)
		refresh := tokenCookie(c, RefreshCookie)

		var live bool
		if access != "" {
			_, err := s.users.CheckAccess(ctx, access)
			if err == nil {
				if authEntry {
					c.Redirect(http.StatusFound, landingPage)
					c.Abort()
					return
				}
				c.Next()
				return
			}
			if !isAuthFailure(err) {
				s.logger.Error(ctx, "session check failed", "error", err)
			}
		}
		if refresh != "" {
			_, err := s.users.CheckRefresh(ctx, refresh)
			live = err == nil
			if err != nil && !isAuthFailure(err) {
				s.logger.Error(ctx, "session check failed", "error", err)
			}
		}

		if authEntry || live {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, loginPage)
		c.Abort()
	}
}

func isAuthFailure(err error) bool {
	code, _ := statusOf(err)
	return code == http.StatusUnauthorized || errors.Is(err, common.ErrorNotFound)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Allow(c.ClientIP()) {
			s.fail(c, common.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
