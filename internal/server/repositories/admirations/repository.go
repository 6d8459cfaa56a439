package admirations

import (
	"context"

	"github.com/dmitrijs2005/pup/internal/server/models"
)

type Repository interface {
	// LockPair serializes writers on the unordered pair until the
	// surrounding transaction ends.
	LockPair(ctx context.Context, userA, userB string) error
	Get(ctx context.Context, fromUserID, toUserID string) (*models.AdmireAction, error)
	Upsert(ctx context.Context, fromUserID, toUserID string, kind models.Kind) error
	ListAdmirers(ctx context.Context, userID string) ([]models.Counterpart, error)
	ListAdmired(ctx context.Context, userID string) ([]models.Counterpart, error)
	ListMatches(ctx context.Context, userID string) ([]models.Counterpart, error)
}
