package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Init creates generation 0 for userID unless a row already exists.
func (r *PostgresRepository) Init(ctx context.Context, userID string) error {
	query := `INSERT INTO refresh_generations (user_id, generation) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Current(ctx context.Context, userID string) (int64, error) {
	query := `SELECT generation FROM refresh_generations WHERE user_id = $1`

	var gen int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&gen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return gen, nil
}

// Rotate advances the generation only if it still equals expected, so two
// refreshes presenting the same token cannot both win. A lost race or a
// stale token is common.ErrSessionExpired.
func (r *PostgresRepository) Rotate(ctx context.Context, userID string, expected int64) (int64, error) {
	query :=
		`UPDATE refresh_generations
		 SET generation = generation + 1, updated_at = now()
		 WHERE user_id = $1 AND generation = $2
		 RETURNING generation`

	var gen int64
	if err := r.db.QueryRowContext(ctx, query, userID, expected).Scan(&gen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrSessionExpired
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return gen, nil
}

// Revoke invalidates every outstanding refresh token of userID.
func (r *PostgresRepository) Revoke(ctx context.Context, userID string) error {
	query := `UPDATE refresh_generations SET generation = generation + 1, updated_at = now() WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
