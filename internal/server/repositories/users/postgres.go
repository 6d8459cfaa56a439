package users

import (
	"context"
	"database/sql"
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

const selectUser = `SELECT id, email, password_hash, role, is_verified, is_active, is_new, is_deleted, created_at, updated_at
	 FROM users`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsVerified, &u.IsActive, &u.IsNew, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts user and fills its timestamps. A taken email is
// common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password_hash, role, is_verified, is_active, is_new, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role,
		user.IsVerified, user.IsActive, user.IsNew, user.IsDeleted,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *PostgresRepository) ClearIsNew(ctx context.Context, id string) error {
	query := `UPDATE users SET is_new = FALSE, updated_at = now() WHERE id = $1 AND is_new`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpsertSeed creates user or, when the email exists, resets its password and
// flags to the seeded values. It returns the persisted id.
func (r *PostgresRepository) UpsertSeed(ctx context.Context, user *models.User) (string, error) {
	query :=
		`INSERT INTO users (id, email, password_hash, role, is_verified, is_active, is_new, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash,
		     is_verified = EXCLUDED.is_verified,
		     is_active = EXCLUDED.is_active,
		     is_new = EXCLUDED.is_new,
		     is_deleted = EXCLUDED.is_deleted,
		     updated_at = now()
		 RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role,
		user.IsVerified, user.IsActive, user.IsNew, user.IsDeleted,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}
