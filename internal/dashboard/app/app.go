package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	httpapi "github.com/Seldszar/nodecg/internal/dashboard/http"
	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/internal/dashboard/session"
	"github.com/Seldszar/nodecg/internal/dashboard/socket"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
	redisdriver "github.com/Seldszar/nodecg/internal/dashboard/store/drivers/redis"
	"github.com/Seldszar/nodecg/internal/dashboard/store/drivers/sqlite"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v2.0.0"

// Application wires the dashboard server together: storage, token and
// session services, the auth gate, and the HTTP/realtime surface.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	sessionRepo store.Sessions
	redisClient *goredis.Client

	tokenService *service.TokenService
	sessionStore *session.Store
	sweeper      *service.Sweeper

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "nodecg",
			Version: BuildVersion,
			Env:     cfg.Logging.Env,
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessionBackend(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("dashboard server starting",
		"addr", app.server.Addr,
		"version", BuildVersion,
		"login_enabled", app.cfg.Login.Enabled,
	)

	serverErrors := make(chan error, 1)
	go func() {
		if app.cfg.SSL.Enabled {
			serverErrors <- app.server.ListenAndServeTLS(app.cfg.SSL.Certificate, app.cfg.SSL.Key)
			return
		}
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the server, the sweeper, and storage.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down dashboard server...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("dashboard server stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.Database.File)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initSessionBackend() error {
	switch app.cfg.Sessions.Backend {
	case "", "sqlite":
		app.sessionRepo = app.db.Sessions()
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: app.cfg.Sessions.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.Sessions.RedisAddr, err)
		}
		app.redisClient = client
		app.sessionRepo = redisdriver.NewSessions(client)
		app.logger.Info("session storage backed by redis", "addr", app.cfg.Sessions.RedisAddr)
	default:
		return fmt.Errorf("unknown sessions backend %q", app.cfg.Sessions.Backend)
	}
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{Store: app.db}
	app.sessionStore = session.NewStore(app.sessionRepo, app.cfg.Sessions.Expiration)
	app.sweeper = service.NewSweeper(
		app.sessionRepo,
		app.logger,
		app.cfg.Sessions.CheckExpirationInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.TokenService = app.tokenService
	router.SessionStore = app.sessionStore
	router.Gate = &httpapi.AuthCheck{
		Tokens: app.tokenService,
		Config: httpapi.GateConfig{
			LoginEnabled:    app.cfg.Login.Enabled,
			BaseURL:         app.cfg.BaseURL,
			SecureCookies:   app.cfg.SSL.Enabled,
			ProviderEnabled: app.cfg.Login.ProviderEnabled,
		},
	}
	router.Gateway = socket.NewGateway(app.tokenService)
	router.CookieOpts = session.CookieOptions{
		Domain: httpapi.CookieDomain(app.cfg.BaseURL),
		Secure: app.cfg.SSL.Enabled,
		MaxAge: app.cfg.Sessions.Expiration,
	}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", app.cfg.Host, app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
