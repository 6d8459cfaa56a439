package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/pup/internal/client/client"
	"github.com/dmitrijs2005/pup/internal/client/config"
	"github.com/dmitrijs2005/pup/internal/client/models"
	"github.com/dmitrijs2005/pup/internal/client/services"
	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/filex"
)

// AuthService is what the CLI needs from services.AuthService.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (*models.User, error)
	Restore(ctx context.Context) (string, error)
	Persist(ctx context.Context) error
}

type MatchService interface {
	Admire(ctx context.Context, targetUserID string) (*models.ActionResult, error)
	Pass(ctx context.Context, targetUserID string) (*models.ActionResult, error)
	Interactions(ctx context.Context) (*models.Interactions, error)
	Browse(ctx context.Context, q models.BrowseQuery) (*models.BrowsePage, error)
}

type ProfileService interface {
	Get(ctx context.Context) (*models.ProfileView, error)
	Update(ctx context.Context, patch models.ProfilePatch) (*models.ProfileView, error)
	UploadPhoto(ctx context.Context, path string) (*models.ProfileView, error)
}

type App struct {
	config   *config.Config
	auth     AuthService
	matches  MatchService
	profiles ProfileService
	db       *sql.DB

	email  string
	last   models.BrowseQuery
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local store, builds the request client and restores a
// saved session if there is one.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if _, err := filex.EnsureParentDir(c.LocalStorePath); err != nil {
		return nil, err
	}
	db, err := client.OpenLocalStore(ctx, c.LocalStorePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	api, err := client.New(c.ServerURL,
		client.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		client.WithRefreshTimeout(c.RefreshTimeout),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		config:   c,
		auth:     services.NewAuthService(api, db),
		matches:  services.NewMatchService(api),
		profiles: services.NewProfileService(api, &http.Client{Timeout: c.RequestTimeout}),
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	email, err := a.auth.Restore(ctx)
	switch {
	case err == nil:
		a.email = email
	case errors.Is(err, common.ErrorNotFound):
	default:
		db.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	return a, nil
}

// Run starts the REPL and blocks until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	fmt.Fprintln(a.out, "Welcome to pup CLI (type 'help' for commands)")
	if a.email != "" {
		fmt.Fprintf(a.out, "Signed in as %s\n", a.email)
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

func (a *App) status() string {
	if a.email == "" {
		return "(signed out)"
	}
	return fmt.Sprintf("(%s)", a.email)
}

// afterCommand saves the cookies, which a refresh may have rotated.
func (a *App) afterCommand(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	if err := a.auth.Persist(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: could not save session: %v\n", err)
	}
}

// report prints err, using the API's message for request failures. A dead
// session signs the user out locally.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}

	var ce *client.Error
	if !errors.As(err, &ce) {
		return a.reportPlain(err)
	}

	fmt.Fprintln(a.out, "Error:", client.ResultOf(err).Message)
	if errors.Is(err, common.ErrSessionExpired) {
		a.email = ""
	}
	return err
}

// reportPlain is report for local failures that are not API errors.
func (a *App) reportPlain(err error) error {
	fmt.Fprintln(a.out, "Error:", err.Error())
	return err
}
