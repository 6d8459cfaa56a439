package refreshtokens

import "context"

// Repository tracks the refresh generation of each user. A refresh token is
// honoured only while its embedded generation equals the stored one.
type Repository interface {
	Init(ctx context.Context, userID string) error
	Current(ctx context.Context, userID string) (int64, error)
	Rotate(ctx context.Context, userID string, expected int64) (int64, error)
	Revoke(ctx context.Context, userID string) error
}
