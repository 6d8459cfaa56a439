// Package session persists the CLI's login state (the signed-in email and
// the session cookies) in the local SQLite store.
package session

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
