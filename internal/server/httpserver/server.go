// Package httpserver exposes the auth, admire and profile APIs over HTTP
// with gin, together with the session gate in front of page routes.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pup/internal/logging"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Users is the account side used by the handlers and the session gate.
type Users interface {
	Signup(ctx context.Context, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	LogoutWithRefresh(ctx context.Context, refreshToken string) error
	Whoami(ctx context.Context, userID string) (*models.UserView, error)
	CheckAccess(ctx context.Context, accessToken string) (*models.User, error)
	CheckRefresh(ctx context.Context, refreshToken string) (*models.User, error)
}

type Matches interface {
	Act(ctx context.Context, fromUserID, toUserID string, kind models.Kind) (bool, error)
	Interactions(ctx context.Context, userID string) (*models.Interactions, error)
	Browse(ctx context.Context, userID, cursor string, limit int, f models.BrowseFilter, withScores bool) (*services.BrowsePage, error)
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*services.ProfileView, error)
	Update(ctx context.Context, userID string, patch services.ProfilePatch) (*services.ProfileView, error)
	PhotoUploadURL(ctx context.Context, userID string) (string, string, error)
}

// Options configures a Server. Zero values fall back to sensible defaults.
type Options struct {
	Address            string
	AllowedOrigins     []string
	CookieSecure       bool
	LoginRatePerMinute int
	LoginBurst         int
	ShutdownTimeout    time.Duration

	// Ping reports database health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error

	// Page renders a page once the session gate let the request through.
	// Rendering is not part of this service; the default answers with the
	// page path.
	Page gin.HandlerFunc
}

type Server struct {
	address         string
	shutdownTimeout time.Duration
	cookieSecure    bool

	users    Users
	matches  Matches
	profiles Profiles
	logger   logging.Logger

	loginLimiter *keyedLimiter
	ping         func(ctx context.Context) error
	engine       *gin.Engine
}

func New(opts Options, us Users, ms Matches, ps Profiles, l logging.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Page == nil {
		opts.Page = placeholderPage
	}

	s := &Server{
		address:         opts.Address,
		shutdownTimeout: opts.ShutdownTimeout,
		cookieSecure:    opts.CookieSecure,
		users:           us,
		matches:         ms,
		profiles:        ps,
		logger:          l.With("module", "http_server"),
		loginLimiter:    newKeyedLimiter(opts.LoginRatePerMinute, opts.LoginBurst),
		ping:            opts.Ping,
	}
	s.engine = s.routes(opts)
	return s
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.healthz)

	authAPI := r.Group("/api/auth")
	{
		authAPI.POST("/signup", s.rateLimit(), s.signup)
		authAPI.POST("/login", s.rateLimit(), s.login)
		authAPI.POST("/refresh", s.refresh)
		authAPI.POST("/logout", s.logout)
		authAPI.GET("/session", s.requireAccess(), s.session)
	}

	api := r.Group("/api", s.requireAccess())
	{
		api.POST("/admire", s.admire)
		api.GET("/admire", s.interactions)
		api.GET("/matches", s.browse)
		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.updateProfile)
		api.POST("/profile/photos", s.photoUploadURL)
	}

	for _, p := range protectedPages {
		r.GET(p, s.pageGate(false), opts.Page)
	}
	for _, p := range authEntryPages {
		r.GET(p, s.pageGate(true), opts.Page)
	}

	return r
}

func placeholderPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": c.FullPath()})
}

func (s *Server) healthz(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			s.logger.Warn(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
