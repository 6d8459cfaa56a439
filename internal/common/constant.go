package common

// Cookie names shared by the server and the request client.
const (
	AccessTokenCookieName  = "access-token"
	RefreshTokenCookieName = "refresh-token"
)

// API paths the request client treats specially.
const (
	RefreshPath = "/api/auth/refresh"
	SessionPath = "/api/auth/session"
)
