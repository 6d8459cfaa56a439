package profiles

import (
	"context"

	"github.com/dmitrijs2005/pup/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Browse(ctx context.Context, viewerID, afterID string, limit int, f models.BrowseFilter) ([]*models.Profile, error)
}
