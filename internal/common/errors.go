// Package common defines shared constants and sentinel errors used across
// client and server layers of pup. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal    = errors.New("internal error")
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("too many requests")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")

	// Token errors, returned by token verification.
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")

	// ErrSessionExpired means the refresh step itself failed; the user has
	// to log in again.
	ErrSessionExpired = errors.New("session expired")

	// Admire/match errors.
	ErrTargetNotFound = errors.New("target user not found")
	ErrInvalidTarget  = errors.New("cannot target yourself")

	// ErrNetwork is a client-side transport or decoding failure.
	ErrNetwork = errors.New("network error")
)
