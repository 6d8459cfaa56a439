package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
	"github.com/dmitrijs2005/pup/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an empty profile for userID. An existing profile is kept.
func (r *PostgresRepository) Create(ctx context.Context, userID string) error {
	query := `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + Columns + ` FROM profiles p WHERE p.user_id = $1`

	p := &models.Profile{}
	if err := Scan(r.db.QueryRowContext(ctx, query, userID), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Update overwrites every editable attribute of p and refreshes UpdatedAt.
func (r *PostgresRepository) Update(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	interests, err := marshalList(p.Interests)
	if err != nil {
		return nil, err
	}
	photos, err := marshalList(p.Photos)
	if err != nil {
		return nil, err
	}
	lifestyle, err := json.Marshal(p.Lifestyle)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE profiles
		 SET display_name = $2, age = $3, location = $4, bio = $5,
		     purpose_domain = $6, purpose_archetype = $7, purpose_modality = $8, purpose_narrative = $9,
		     interests = $10, lifestyle = $11, photos = $12, updated_at = now()
		 WHERE user_id = $1
		 RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		p.UserID, p.DisplayName, p.Age, p.Location, p.Bio,
		p.PurposeDomain, p.PurposeArchetype, p.PurposeModality, p.PurposeNarrative,
		interests, string(lifestyle), photos,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Browse returns up to limit candidate profiles for viewerID ordered by user
// id, starting after afterID. Candidates exclude the viewer, inactive or
// deleted users and anyone the viewer already admired or passed.
func (r *PostgresRepository) Browse(ctx context.Context, viewerID, afterID string, limit int, f models.BrowseFilter) ([]*models.Profile, error) {
	query :=
		`SELECT ` + Columns + `
		 FROM profiles p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.user_id <> $1
		   AND u.is_active AND NOT u.is_deleted
		   AND NOT EXISTS (
		       SELECT 1 FROM admirations a WHERE a.from_user_id = $1 AND a.to_user_id = p.user_id
		   )
		   AND p.user_id > $2
		   AND ($3 = '' OR lower(p.purpose_domain) = lower($3))
		   AND ($4 = '' OR lower(p.purpose_archetype) = lower($4))
		   AND ($5 = '' OR lower(p.purpose_modality) = lower($5))
		 ORDER BY p.user_id
		 LIMIT $6`

	rows, err := r.db.QueryContext(ctx, query, viewerID, afterID, f.Domain, f.Archetype, f.Modality, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Profile, 0, limit)
	for rows.Next() {
		p := &models.Profile{}
		if err := Scan(rows, p); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
