// Package server wires the pup backend together: database and migrations,
// score cache, notifier, photo store, services, the HTTP API and the gRPC
// health endpoint. It also handles signals and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/pup/internal/logging"
	"github.com/dmitrijs2005/pup/internal/server/auth"
	"github.com/dmitrijs2005/pup/internal/server/config"
	"github.com/dmitrijs2005/pup/internal/server/httpserver"
	"github.com/dmitrijs2005/pup/internal/server/notify"
	"github.com/dmitrijs2005/pup/internal/server/photos"
	"github.com/dmitrijs2005/pup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pup/internal/server/scorecache"
	"github.com/dmitrijs2005/pup/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/pup/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	redis          *redis.Client
	userService    *services.UserService
	matchService   *services.MatchService
	profileService *services.ProfileService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	app.userService = services.NewUserService(db, rm, tokens, logger)
	app.matchService = services.NewMatchService(db, rm, app.scoreCache(ctx), app.notifier(), logger)
	app.profileService = services.NewProfileService(db, rm, photos.NewStore(photos.Settings{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	}), logger)

	if c.SeedDemoUser {
		if err := app.userService.SeedDemoUser(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed demo user: %w", err)
		}
		logger.Info(ctx, "demo user ready", "email", services.DemoEmail)
	}

	return app, nil
}

// scoreCache uses Redis when configured and reachable, the in-process map
// otherwise.
func (app *App) scoreCache(ctx context.Context) scorecache.Cache {
	if app.config.RedisAddr == "" {
		return scorecache.NewMemory(app.config.ScoreCacheTTL)
	}

	app.redis = redis.NewClient(&redis.Options{Addr: app.config.RedisAddr, Password: app.config.RedisPassword})
	rc := scorecache.NewRedis(app.redis, "pup:score:", app.config.ScoreCacheTTL, app.logger)
	if err := rc.Ping(ctx); err != nil {
		app.logger.Warn(ctx, "redis unavailable, scores cached in memory", "addr", app.config.RedisAddr, "error", err)
		app.redis.Close()
		app.redis = nil
		return scorecache.NewMemory(app.config.ScoreCacheTTL)
	}
	return rc
}

func (app *App) notifier() notify.Notifier {
	if app.config.SendGridAPIKey == "" {
		return notify.NewLogNotifier(app.logger)
	}
	return notify.NewSendGridNotifier(app.config.SendGridAPIKey, app.config.MailFrom)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.New(httpserver.Options{
		Address:            app.config.HTTPAddr,
		AllowedOrigins:     app.config.AllowedOrigins,
		CookieSecure:       app.config.CookieSecure,
		LoginRatePerMinute: app.config.LoginRatePerMinute,
		LoginBurst:         app.config.LoginBurst,
		ShutdownTimeout:    app.config.ShutdownTimeout,
		Ping:               app.db.PingContext,
	}, app.userService, app.matchService, app.profileService, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.HealthAddr, app.db.PingContext, 0, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or a server fails, then waits for both
// servers and any pending match notifications.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.matchService.Wait()
	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) Close() {
	if app.redis != nil {
		app.redis.Close()
	}
	app.db.Close()
}
