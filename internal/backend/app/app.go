package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/modconsole/internal/backend/http"
	"github.com/aussiebroadwan/modconsole/internal/backend/service"
	"github.com/aussiebroadwan/modconsole/internal/backend/store"
	"github.com/aussiebroadwan/modconsole/internal/backend/store/drivers/sqlite"
	"github.com/aussiebroadwan/modconsole/pkg/cryptox"
	"github.com/aussiebroadwan/modconsole/pkg/jwtx"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the reference backend together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier
	hasher   *cryptox.PasswordHasher

	tokenService        *service.TokenService
	authService         *service.AuthService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "modconsole-backend",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		hasher: cryptox.NewPasswordHasher(cfg.Pepper),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, verifier, err := LoadSigningKey(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer, app.verifier = signer, verifier

	app.initServices()

	if err := app.seed(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed account: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("backend starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down backend...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("backend stopped")
	return nil
}

// Close releases the database without touching the HTTP server. Used when
// the application was built but never Run.
func (app *Application) Close() error {
	return app.db.Close()
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		(&url.URL{Path: app.cfg.DatabaseFile}).EscapedPath())
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

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Signer:     app.signer,
		Verifier:   app.verifier,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.authService = &service.AuthService{
		Store:        app.db,
		Tokens:       app.tokenService,
		Hasher:       app.hasher,
		ChallengeTTL: app.cfg.ChallengeTTL,
	}
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// seed creates the configured account once. A generated password is logged
// a single time, on creation.
func (app *Application) seed(ctx context.Context) error {
	s := app.cfg.Seed
	if s.Email == "" {
		return nil
	}

	generated := false
	if s.Password == "" {
		pw, err := cryptox.GeneratePassword()
		if err != nil {
			return err
		}
		s.Password, generated = pw, true
	}

	created, err := app.userService.EnsureUser(ctx, service.SeedInput{
		Email:      s.Email,
		Password:   s.Password,
		Username:   s.Username,
		Role:       s.Role,
		TOTPSecret: s.TOTPSecret,
	})
	if err != nil {
		return err
	}

	switch {
	case !created:
		app.logger.Debug("seed account already exists", "email", s.Email)
	case generated:
		app.logger.Warn("seed account created with generated password",
			"email", s.Email, "password", s.Password, "two_factor", s.TOTPSecret != "")
	default:
		app.logger.Info("seed account created", "email", s.Email, "two_factor", s.TOTPSecret != "")
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.cfg.RateLimits,
		app.logger,
	)

	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.AllowedOrigins = app.cfg.AllowedOrigins
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
