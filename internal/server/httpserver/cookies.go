package httpserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = common.AccessTokenCookieName
	RefreshCookie = common.RefreshTokenCookieName
)

// setTokenCookies stores both tokens. The access token stays readable by
// scripts; the refresh token never is.
func (s *Server) setTokenCookies(c *gin.Context, pair *services.TokenPair) {
	now := time.Now()
	http.SetCookie(c.Writer, s.cookie(AccessCookie, pair.AccessToken, pair.AccessExpiresAt.Sub(now), false))
	http.SetCookie(c.Writer, s.cookie(RefreshCookie, pair.RefreshToken, pair.RefreshExpiresAt.Sub(now), true))
}

func (s *Server) clearTokenCookies(c *gin.Context) {
	http.SetCookie(c.Writer, s.cookie(AccessCookie, "", -1, false))
	http.SetCookie(c.Writer, s.cookie(RefreshCookie, "", -1, true))
}

func (s *Server) cookie(name, value string, ttl time.Duration, httpOnly bool) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func tokenCookie(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
