// Package client is the HTTP request client the CLI uses to talk to the pup
// API.
//
// # Overview
//
// Client keeps the session cookies in a cookie jar and sends JSON requests.
// When a call comes back 401 it refreshes the session through
// /api/auth/refresh and retries the call exactly once. Concurrent callers
// that see a 401 for the same credentials share one refresh.
//
// # Error Handling
//
// Every failure is an *Error carrying a Kind, the HTTP status (zero for
// transport failures) and a message. Error implements Is for the sentinels
// in internal/common, so callers can write
//
//	errors.Is(err, common.ErrSessionExpired)
//
// ResultOf renders any error as the {success, message} shape shown to users.
//
// # Local store
//
// OpenLocalStore opens the SQLite file in which the CLI persists its
// session between runs.
package client
