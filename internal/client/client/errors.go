package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/pup/internal/common"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindSessionExpired  Kind = "session_expired"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindRateLimited     Kind = "rate_limited"
	KindServer          Kind = "server"
)

// Error is the normalized form of every failure returned by Client. Status
// is zero when no HTTP response was received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the shared sentinels in common.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNetwork:
		return target == common.ErrNetwork
	case KindValidation:
		return target == common.ErrValidation
	case KindUnauthenticated:
		return target == common.ErrUnauthenticated
	case KindSessionExpired:
		return target == common.ErrSessionExpired
	case KindNotFound:
		return target == common.ErrorNotFound || target == common.ErrTargetNotFound
	case KindConflict:
		return target == common.ErrAlreadyExists
	case KindRateLimited:
		return target == common.ErrRateLimited
	case KindServer:
		return target == common.ErrInternal
	}
	return false
}

func kindOf(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
}

func sessionExpired() *Error {
	return &Error{Kind: KindSessionExpired, Status: http.StatusUnauthorized, Message: "session expired, please log in again"}
}

// Result is the {success, message} shape shown to users.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ResultOf renders err for display. Non-client errors are reported with a
// generic message.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	var ce *Error
	if errors.As(err, &ce) {
		return Result{Message: ce.Message}
	}
	return Result{Message: "unexpected error"}
}
