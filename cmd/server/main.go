package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carevia/foundation/internal"
	"github.com/carevia/foundation/internal/email"
	"github.com/carevia/foundation/internal/guard"
	"github.com/carevia/foundation/internal/handler"
	"github.com/carevia/foundation/internal/identity"
	"github.com/carevia/foundation/internal/identity/static"
	"github.com/carevia/foundation/internal/identity/supabase"
	"github.com/carevia/foundation/internal/inflight"
	"github.com/carevia/foundation/internal/metrics"
	"github.com/carevia/foundation/internal/middleware"
	"github.com/carevia/foundation/internal/repository"
	"github.com/carevia/foundation/internal/service"
	"github.com/carevia/foundation/internal/session"
	"github.com/carevia/foundation/internal/storage"
	"github.com/carevia/foundation/internal/tracing"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Tracing
	exporting, err := tracing.Init(ctx, tracing.Config{
		EndpointURL: cfg.OTLPEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
		Env:         cfg.Env,
		Insecure:    cfg.Env == "development",
	})
	if err != nil {
		return fmt.Errorf("tracing initialization failed: %w", err)
	}
	if exporting {
		logger.Info("Tracing enabled", "endpoint", cfg.OTLPEndpoint)
	}

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Identity provider
	provider, err := newIdentityProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("identity provider initialization failed: %w", err)
	}
	logger.Info("Identity provider ready", "provider", cfg.IdentityProvider)

	// In-flight login guard
	var loginGuard inflight.Guard = inflight.NewMemory()
	if cfg.RedisURL != "" {
		client, err := inflight.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer client.Close()
		loginGuard = inflight.NewRedis(client, cfg.InflightTTL, logger)
		logger.Info("In-flight guard using Redis")
	}

	// Storage
	store, err := storage.New(ctx, storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Contact notifications
	var notifier email.Notifier = email.NopNotifier{}
	if cfg.SMTPHost != "" {
		smtpNotifier, err := email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, cfg.NotifyEmails, strings.TrimSuffix(cfg.BaseURL, "/")+cfg.AdminPath, logger)
		if err != nil {
			return fmt.Errorf("email initialization failed: %w", err)
		}
		notifier = smtpNotifier
		logger.Info("Contact notifications enabled", "recipients", len(cfg.NotifyEmails))
	}

	// Initialize services
	contentService := service.NewContentService(repo, store, service.NewImagingProcessor(), service.ContentServiceConfig{
		ContactHourlyLimit: cfg.ContactHourlyLimit,
		Notifier:           notifier,
	}, logger)
	issuer := service.NewSessionIssuer(provider, loginGuard, service.IssuerConfig{
		ProviderName: cfg.IdentityProvider,
		TTL:          cfg.SessionTTL,
	}, logger)

	// Access control
	sessions := session.NewCookieStore(cfg.SessionTTL, cfg.TrustProxy)
	routeGuard := guard.New(cfg.ProtectedPaths, cfg.LoginPath)

	// Initialize middleware
	isSecure := cfg.IsSecureContext()
	imageOrigin := cfg.LocalStorageURL
	if cfg.StorageProvider == storage.ProviderR2 {
		imageOrigin = cfg.R2PublicURL
	}
	guardMw := middleware.NewRouteGuardMiddleware(sessions, routeGuard, time.Now, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger, cfg.TrustProxy)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure, imageOrigin)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	rateLimiter := middleware.NewSiteRateLimiter(cfg.TrustProxy, logger)
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(issuer, sessions, handler.AuthHandlerConfig{
		LoginPath:  cfg.LoginPath,
		AdminPath:  cfg.AdminPath,
		TrustProxy: cfg.TrustProxy,
	}, logger)
	contentHandler := handler.NewContentHandler(contentService, cfg.TrustProxy, logger)
	adminHandler := handler.NewAdminHandler(contentService, cfg.AdminPath, cfg.TrustProxy, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	if !metricsAuthMw.Enabled() {
		logger.Warn("METRICS_USERNAME/METRICS_PASSWORD not set; /metrics is unprotected")
	}
	mux.Handle("GET /metrics", metricsAuthMw.Handler(metrics.Handler()))

	// Uploaded files (local storage only)
	if cfg.StorageProvider == storage.ProviderLocal {
		mux.Handle("GET /files/", storage.FileHandler("/files/", store, logger))
	}

	authHandler.RegisterRoutes(mux, rateLimiter.LimitLogin)
	contentHandler.RegisterRoutes(mux, rateLimiter.LimitContact)
	adminHandler.RegisterRoutes(mux)

	// Static site
	mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))

	// The guard runs innermost so every protected path, static or not, is checked.
	app := middleware.Stack(
		tracing.Middleware,
		metrics.Middleware,
		loggingMw.Handler,
		securityMw.Handler,
		guardMw.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func newIdentityProvider(cfg *internal.Config, logger *slog.Logger) (identity.Provider, error) {
	switch cfg.IdentityProvider {
	case identity.ProviderStatic:
		logger.Warn("Using static identity provider; do not use in production")
		return static.New(cfg.AdminEmail, cfg.AdminPasswordHash, logger)
	default:
		return supabase.New(supabase.Config{
			URL:     cfg.SupabaseURL,
			AnonKey: cfg.SupabaseAnonKey,
			ProviderConfig: identity.ProviderConfig{
				Timeout:    cfg.IdentityTimeout,
				MaxRetries: cfg.IdentityRetries,
			},
		}, logger)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
