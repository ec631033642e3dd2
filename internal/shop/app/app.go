package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/aussiebroadwan/greenbite/internal/shop/http"
	"github.com/aussiebroadwan/greenbite/internal/shop/mail"
	"github.com/aussiebroadwan/greenbite/internal/shop/metrics"
	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/internal/shop/store/drivers/postgres"
	"github.com/aussiebroadwan/greenbite/internal/shop/store/drivers/sqlite"
	"github.com/aussiebroadwan/greenbite/pkg/cryptox"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/jwtx"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags.
var BuildVersion = "v1.0.0"

// Application owns the storefront's dependencies and HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	tokens   *jwtx.HS256
	mailer   mail.Dispatcher
	registry *prometheus.Registry
	metrics  *metrics.Collector

	credentialService   *service.CredentialService
	catalogService      *service.CatalogService
	cartService         *service.CartService
	orderService        *service.OrderService
	profileImageService *service.ProfileImageService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds every dependency. Nothing is listening yet.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "greenbite-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	tokens, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTExpiresIn)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize session tokens: %w", err)
	}
	app.tokens = tokens

	if err := app.initMail(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initMetrics()

	if err := app.initServices(ctx); err != nil {
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
	app.housekeepingService.Start()

	app.logger.Info("greenbite api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

// Shutdown drains in-flight requests, stops housekeeping and closes the
// database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down greenbite api...")

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

	app.logger.Info("greenbite api stopped")
	return nil
}

// initDatabase opens the configured driver and applies its migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db     store.Store
		err    error
		driver string
	)

	if app.cfg.UsesPostgres() {
		driver = "postgres"
		pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		db, err = postgres.NewStore(pctx, app.cfg.DatabaseURL)
		cancel()
	} else {
		driver = "sqlite"
		db, err = sqlite.NewStore(app.cfg.DatabaseURL)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s database: %w", driver, err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", driver)
	return nil
}

func (app *Application) initMail() error {
	if app.cfg.MailDriver != "smtp" {
		app.mailer = mail.LogDispatcher{}
		app.logger.Warn("mail driver is log, reset codes will not be delivered")
		return nil
	}

	d, err := mail.NewSMTPDispatcher(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUser,
		Password: app.cfg.SMTPPass,
		Timeout:  app.cfg.MailTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize smtp mail: %w", err)
	}
	app.mailer = d
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.registry)
}

func (app *Application) initServices(ctx context.Context) error {
	codeKey, err := cryptox.DeriveKey([]byte(app.cfg.JWTSecret), "greenbite reset-code fingerprints")
	if err != nil {
		return fmt.Errorf("failed to derive code key: %w", err)
	}

	app.credentialService = &service.CredentialService{
		Store:               app.db,
		Tokens:              app.tokens,
		Mailer:              app.mailer,
		Metrics:             app.metrics,
		CodeKey:             codeKey,
		CodeTTL:             app.cfg.ResetCodeTTL,
		MailTimeout:         app.cfg.MailTimeout,
		StoreTimeout:        app.cfg.StoreTimeout,
		RequireVerifiedCode: app.cfg.ResetRequiresVerifiedCode,
	}
	if app.cfg.ResetRequiresVerifiedCode {
		app.logger.Info("password reset requires a verified code")
	}

	app.catalogService = service.NewCatalogService(app.db, app.cfg.StoreTimeout)
	app.cartService = &service.CartService{Store: app.db, StoreTimeout: app.cfg.StoreTimeout}
	app.orderService = &service.OrderService{Store: app.db, StoreTimeout: app.cfg.StoreTimeout}

	s3cfg := service.S3Config{
		Bucket:        app.cfg.S3Bucket,
		Region:        app.cfg.S3Region,
		Endpoint:      app.cfg.S3Endpoint,
		AccessKey:     app.cfg.S3AccessKey,
		SecretKey:     app.cfg.S3SecretKey,
		PublicBaseURL: app.cfg.S3PublicBaseURL,
	}
	app.profileImageService = &service.ProfileImageService{
		Store:        app.db,
		Config:       s3cfg,
		StoreTimeout: app.cfg.StoreTimeout,
	}
	if s3cfg.Enabled() {
		presigner, err := service.NewS3Presigner(ctx, s3cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 presigner: %w", err)
		}
		app.profileImageService.Presigner = presigner
		app.logger.Info("profile image uploads enabled", "bucket", s3cfg.Bucket)
	}

	// Codes are kept one extra TTL past expiry before they are purged.
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.ResetCodeTTL,
	)
	app.housekeepingService.StoreTimeout = app.cfg.StoreTimeout
	return nil
}

func (app *Application) initHTTP() error {
	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.logger, app.cfg.Production())
	router.Limits.TrustedProxies = proxies

	router.CORS = httpx.CORSConfig{
		AllowedOrigins:   app.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	router.Metrics = app.metrics
	router.Gatherer = app.registry

	router.CredentialService = app.credentialService
	router.CatalogService = app.catalogService
	router.CartService = app.cartService
	router.OrderService = app.orderService
	router.ProfileImageService = app.profileImageService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
