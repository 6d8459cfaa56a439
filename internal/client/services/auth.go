package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pup/internal/client/models"
	"github.com/dmitrijs2005/pup/internal/client/repositories/session"
	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
)

const (
	keyEmail   = "email"
	keyCookies = "cookies"
)

// AuthService handles the account commands and persists the session
// between CLI runs.
type AuthService struct {
	api API
	db  *sql.DB
}

func NewAuthService(api API, db *sql.DB) *AuthService {
	return &AuthService{api: api, db: db}
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

// savedCookie keeps what the jar needs to send a cookie again.
type savedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func (a *AuthService) sessionRepo(db dbx.DBTX) session.Repository {
	return session.NewSQLiteRepository(db)
}

// Signup registers a new account; the server logs it in right away.
func (a *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	return a.authenticate(ctx, pathSignup, email, password)
}

// Login signs in and saves the session locally.
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	return a.authenticate(ctx, pathLogin, email, password)
}

func (a *AuthService) authenticate(ctx context.Context, path, email, password string) (*models.User, error) {
	email = common.NormalizeEmail(email)

	var out userEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := a.api.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}

	if err := a.saveSession(ctx, email); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return out.User, nil
}

// Logout revokes the session on the server and forgets it locally. The
// local copy is cleared even when the server cannot be reached.
func (a *AuthService) Logout(ctx context.Context) error {
	remoteErr := a.api.Do(ctx, http.MethodPost, pathLogout, nil, nil)

	if err := a.sessionRepo(a.db).Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.api.SetCookies(expired(a.api.Cookies()))

	return remoteErr
}

// Whoami asks the server who the current session belongs to.
func (a *AuthService) Whoami(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := a.api.Do(ctx, http.MethodGet, pathSession, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Restore loads the saved session into the API client and returns the
// email it belongs to. ErrorNotFound means nobody is logged in.
func (a *AuthService) Restore(ctx context.Context) (string, error) {
	repo := a.sessionRepo(a.db)

	email, err := repo.Get(ctx, keyEmail)
	if err != nil {
		return "", err
	}

	raw, err := repo.Get(ctx, keyCookies)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	var saved []savedCookie
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &saved); err != nil {
			return "", fmt.Errorf("decode saved cookies: %w", err)
		}
	}

	now := time.Now()
	cs := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		if !s.Expires.IsZero() && s.Expires.Before(now) {
			continue
		}
		cs = append(cs, &http.Cookie{Name: s.Name, Value: s.Value, Path: s.Path, Expires: s.Expires})
	}
	a.api.SetCookies(cs)

	return string(email), nil
}

// Persist stores the client's current cookies, which change whenever the
// session is refreshed. It is a no-op when nobody is logged in.
func (a *AuthService) Persist(ctx context.Context) error {
	email, err := a.sessionRepo(a.db).Get(ctx, keyEmail)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.saveSession(ctx, string(email))
}

func (a *AuthService) saveSession(ctx context.Context, email string) error {
	cs := a.api.Cookies()
	saved := make([]savedCookie, 0, len(cs))
	for _, c := range cs {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value, Path: "/", Expires: c.Expires})
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.sessionRepo(tx)
		if err := repo.Set(ctx, keyEmail, []byte(email)); err != nil {
			return err
		}
		return repo.Set(ctx, keyCookies, raw)
	})
}

func expired(cs []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cs))
	for _, c := range cs {
		out = append(out, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	return out
}
