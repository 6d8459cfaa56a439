// Package admirations stores admire and pass actions, one row per ordered
// pair of users, and derives admirer, admired and match listings from them.
package admirations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/repositories/profiles"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LockPair takes a transaction-scoped advisory lock on the pair. Both
// directions map to the same key, so A→B and B→A admires run one after the
// other and the second one sees the first one's row.
func (r *PostgresRepository) LockPair(ctx context.Context, userA, userB string) error {
	if userA > userB {
		userA, userB = userB, userA
	}
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userA+":"+userB); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, fromUserID, toUserID string) (*models.AdmireAction, error) {
	query :=
		`SELECT from_user_id, to_user_id, kind, created_at, updated_at
		 FROM admirations
		 WHERE from_user_id = $1 AND to_user_id = $2`

	a := &models.AdmireAction{}
	err := r.db.QueryRowContext(ctx, query, fromUserID, toUserID).
		Scan(&a.FromUserID, &a.ToUserID, &a.Kind, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Upsert records kind as the single action for the ordered pair. created_at
// moves only when the kind changes, so repeating an action leaves the row
// as it was apart from updated_at.
func (r *PostgresRepository) Upsert(ctx context.Context, fromUserID, toUserID string, kind models.Kind) error {
	query :=
		`INSERT INTO admirations (from_user_id, to_user_id, kind)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (from_user_id, to_user_id) DO UPDATE
		 SET kind = EXCLUDED.kind,
		     updated_at = now(),
		     created_at = CASE WHEN admirations.kind = EXCLUDED.kind
		                       THEN admirations.created_at
		                       ELSE EXCLUDED.created_at END`

	if _, err := r.db.ExecContext(ctx, query, fromUserID, toUserID, kind); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrTargetNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListAdmirers returns users admiring userID whom userID has not admired back.
func (r *PostgresRepository) ListAdmirers(ctx context.Context, userID string) ([]models.Counterpart, error) {
	query :=
		`SELECT ` + profiles.Columns + `, a.created_at
		 FROM admirations a
		 JOIN users u ON u.id = a.from_user_id
		 JOIN profiles p ON p.user_id = a.from_user_id
		 LEFT JOIN admirations b ON b.from_user_id = a.to_user_id AND b.to_user_id = a.from_user_id
		 WHERE a.to_user_id = $1 AND a.kind = 'admire'
		   AND (b.kind IS NULL OR b.kind <> 'admire')
		   AND u.is_active AND NOT u.is_deleted
		 ORDER BY a.created_at DESC`

	return r.list(ctx, query, userID)
}

// ListAdmired returns users admired by userID who have not admired back.
func (r *PostgresRepository) ListAdmired(ctx context.Context, userID string) ([]models.Counterpart, error) {
	query :=
		`SELECT ` + profiles.Columns + `, a.created_at
		 FROM admirations a
		 JOIN users u ON u.id = a.to_user_id
		 JOIN profiles p ON p.user_id = a.to_user_id
		 LEFT JOIN admirations b ON b.from_user_id = a.to_user_id AND b.to_user_id = a.from_user_id
		 WHERE a.from_user_id = $1 AND a.kind = 'admire'
		   AND (b.kind IS NULL OR b.kind <> 'admire')
		   AND u.is_active AND NOT u.is_deleted
		 ORDER BY a.created_at DESC`

	return r.list(ctx, query, userID)
}

// ListMatches returns users with whom userID shares a mutual admire. The
// match time is when the later of the two admires was made.
func (r *PostgresRepository) ListMatches(ctx context.Context, userID string) ([]models.Counterpart, error) {
	query :=
		`SELECT ` + profiles.Columns + `, GREATEST(a.created_at, b.created_at)
		 FROM admirations a
		 JOIN admirations b ON b.from_user_id = a.to_user_id AND b.to_user_id = a.from_user_id
		 JOIN users u ON u.id = a.to_user_id
		 JOIN profiles p ON p.user_id = a.to_user_id
		 WHERE a.from_user_id = $1 AND a.kind = 'admire' AND b.kind = 'admire'
		   AND u.is_active AND NOT u.is_deleted
		 ORDER BY 14 DESC`

	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) list(ctx context.Context, query, userID string) ([]models.Counterpart, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Counterpart{}
	for rows.Next() {
		var c models.Counterpart
		if err := profiles.Scan(rows, &c.Profile, &c.ActedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
