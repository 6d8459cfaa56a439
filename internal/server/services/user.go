// Package services contains server-side business logic. This file implements
// UserService: signup, login, refresh rotation, logout and the liveness
// checks used by the session middleware.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/cryptox"
	"github.com/dmitrijs2005/pup/internal/dbx"
	"github.com/dmitrijs2005/pup/internal/logging"
	"github.com/dmitrijs2005/pup/internal/server/auth"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DemoEmail    = "demo@pup.com"
	DemoPassword = "password"

	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Tokens *TokenPair
	User   *models.UserView
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	validate    *validator.Validate
	bcryptCost  int
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		validate:    validator.New(),
		bcryptCost:  cryptox.DefaultCost,
		logger:      logger.With("module", "users"),
	}
}

func (s *UserService) validateCredentials(email, password string) error {
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d characters", common.ErrValidation, minPasswordLength, maxPasswordLength)
	}
	return nil
}

// Signup creates the user, an empty profile and refresh generation 0 in one
// transaction and logs the user in.
func (s *UserService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	email = common.NormalizeEmail(email)
	if err := s.validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		IsNew:        true,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		if err := s.repomanager.Profiles(tx).Create(ctx, user.ID); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).Init(ctx, user.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	pair, err := s.issuePair(user, 0)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: pair, User: user.View()}, nil
}

// Login checks the password and issues a pair bound to the current refresh
// generation. Unknown, inactive and deleted accounts are indistinguishable
// from a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnCompare([]byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := cryptox.CheckPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if !user.Live() {
		return nil, common.ErrInvalidCredentials
	}

	gen, err := s.currentGeneration(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(user, gen)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: pair, User: user.View()}, nil
}

// Refresh verifies the refresh token, advances the user's generation and
// issues a new pair. Any failure is common.ErrSessionExpired except
// infrastructure errors.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSessionExpired, err)
	}

	user, err := s.liveUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	gen, err := s.repomanager.RefreshTokens(s.db).Rotate(ctx, user.ID, claims.Generation)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			s.logger.Info(ctx, "stale refresh token rejected", "user_id", user.ID, "generation", claims.Generation)
			return nil, common.ErrSessionExpired
		}
		return nil, fmt.Errorf("rotate refresh generation: %w", err)
	}

	return s.issuePair(user, gen)
}

// Logout revokes every refresh token of userID.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// LogoutWithRefresh revokes using the refresh token when the access token is
// gone. An invalid token is ignored: the caller is logged out either way.
func (s *UserService) LogoutWithRefresh(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil
	}
	return s.Logout(ctx, claims.UserID)
}

func (s *UserService) Whoami(ctx context.Context, userID string) (*models.UserView, error) {
	user, err := s.liveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	return user.View(), nil
}

// CheckAccess verifies an access token and that its user is still live.
// Token errors are returned as-is so callers can tell expiry apart.
func (s *UserService) CheckAccess(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Verify(accessToken, auth.KindAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.liveUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// CheckRefresh verifies a refresh token against the current generation
// without rotating it.
func (s *UserService) CheckRefresh(ctx context.Context, refreshToken string) (*models.User, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, common.ErrSessionExpired
	}
	user, err := s.liveUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	gen, err := s.currentGeneration(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if gen != claims.Generation {
		return nil, common.ErrSessionExpired
	}
	return user, nil
}

// SeedDemoUser makes sure the demo account exists with its known password
// and a completed onboarding.
func (s *UserService) SeedDemoUser(ctx context.Context) error {
	hash, err := cryptox.HashPassword([]byte(DemoPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	demo := &models.User{
		ID:           uuid.NewString(),
		Email:        DemoEmail,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsVerified:   true,
		IsActive:     true,
		IsNew:        false,
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := s.repomanager.Users(tx).UpsertSeed(ctx, demo)
		if err != nil {
			return err
		}
		if err := s.repomanager.Profiles(tx).Create(ctx, id); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).Init(ctx, id)
	})
}

// --- helpers below ---

// liveUser loads userID and reports common.ErrSessionExpired when the
// account is gone, inactive or deleted.
func (s *UserService) liveUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionExpired
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Live() {
		return nil, common.ErrSessionExpired
	}
	return user, nil
}

func (s *UserService) currentGeneration(ctx context.Context, userID string) (int64, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	gen, err := repo.Current(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		if err := repo.Init(ctx, userID); err != nil {
			return 0, fmt.Errorf("init refresh generation: %w", err)
		}
		return repo.Current(ctx, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("load refresh generation: %w", err)
	}
	return gen, nil
}

func (s *UserService) issuePair(user *models.User, generation int64) (*TokenPair, error) {
	now := time.Now()

	access, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID, user.Email, generation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(s.tokens.AccessTTL()),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(s.tokens.RefreshTTL()),
	}, nil
}
