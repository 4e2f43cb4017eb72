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

	httpapi "github.com/aussiebroadwan/gqlgate/internal/auth/http"
	"github.com/aussiebroadwan/gqlgate/internal/auth/ops"
	"github.com/aussiebroadwan/gqlgate/internal/auth/service"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gqlgate/pkg/jwtx"
	"github.com/aussiebroadwan/gqlgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gateway process with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	tokenService *service.TokenService
	userService  *service.UserService
	scopeService *service.ScopeService
	registry     *ops.Registry

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gqlgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("gqlgate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"token_mode", app.cfg.TokenType,
		"permission_mode", app.cfg.PermissionType,
	)

	serverErrors := make(chan error, 1)
	go func() {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gqlgate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gqlgate stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

func (app *Application) initServices() error {
	sameSite, err := app.cfg.ParseSameSite()
	if err != nil {
		return err
	}

	var signer *jwtx.HS256
	if app.cfg.JWTSecretKey != "" {
		signer, err = jwtx.NewHS256(app.cfg.JWTSecretKey)
		if err != nil {
			return err
		}
	}

	app.tokenService = &service.TokenService{
		Store:             app.db,
		Signer:            signer,
		Issuer:            app.cfg.Issuer,
		Mode:              service.TokenMode(app.cfg.TokenType),
		Expiration:        app.cfg.Expiration,
		JWTExpiration:     app.cfg.JWTExpiration,
		RefreshExpiration: app.cfg.JWTRefreshExpiration,
		SameSite:          sameSite,
		CookieSecure:      app.cfg.CookieSecure,
	}

	groupSchemas, err := app.cfg.ParseGranularSchemas()
	if err != nil {
		return err
	}
	app.scopeService = &service.ScopeService{
		Store:        app.db,
		Mode:         service.PermissionMode(app.cfg.PermissionType),
		SchemaID:     app.cfg.SchemaID,
		GroupSchemas: groupSchemas,
	}

	app.userService = &service.UserService{
		Store:               app.db,
		Mailer:              &logMailer{logger: app.logger},
		RequireVerification: app.cfg.RequireVerification,
		ResetCodeTTL:        app.cfg.ResetCodeTTL,
	}

	resolver := &ops.Resolver{
		Tokens:   app.tokenService,
		Users:    app.userService,
		Scope:    app.scopeService,
		Store:    app.db,
		Messages: app.cfg.Messages,
	}

	app.registry = ops.NewRegistry()
	if err := resolver.RegisterAll(app.registry); err != nil {
		return fmt.Errorf("registering operations: %w", err)
	}
	return nil
}

func (app *Application) initHTTP() error {
	router := httpapi.NewRouter(app.registry, app.cfg.Messages, app.db, BuildVersion, app.logger)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// logMailer stands in for a real delivery provider: it records that a code
// was issued without persisting or sending the raw value anywhere useful.
// Deployments wire their own service.Mailer here.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendActivationCode(_ context.Context, email, userID, code string) error {
	m.logger.Info("activation code issued", "email", email, "user_id", userID)
	m.logger.Debug("activation code value", "user_id", userID, "code", code)
	return nil
}

func (m *logMailer) SendPasswordResetCode(_ context.Context, email, userID, code string) error {
	m.logger.Info("password reset code issued", "email", email, "user_id", userID)
	m.logger.Debug("password reset code value", "user_id", userID, "code", code)
	return nil
}
