// Package services contains the CLI's application services: account and
// session handling, browsing and admiring, and profile editing. They speak
// to the server through API and keep the session in the local store.
package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/pup/internal/common"
)

// API is the part of *client.Client the services depend on.
type API interface {
	Do(ctx context.Context, method, path string, in, out any) error
	Cookies() []*http.Cookie
	SetCookies(cs []*http.Cookie)
}

const (
	pathSignup       = "/api/auth/signup"
	pathLogin        = "/api/auth/login"
	pathLogout       = "/api/auth/logout"
	pathSession      = common.SessionPath
	pathAdmire       = "/api/admire"
	pathMatches      = "/api/matches"
	pathProfile      = "/api/profile"
	pathProfilePhoto = "/api/profile/photos"
)
