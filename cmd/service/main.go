// Package main runs the biblioteca HTTP service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http"
	"github.com/jsamuelsen/biblioteca/internal/adapters/http/handlers"
	"github.com/jsamuelsen/biblioteca/internal/bootstrap"
	"github.com/jsamuelsen/biblioteca/internal/platform/config"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
	"github.com/jsamuelsen/biblioteca/internal/platform/telemetry"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("cache", cfg.Cache.Driver),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Open storage, cache and catalog, and build the services
	lib, err := bootstrap.Open(ctx, cfg, logger, bootstrap.Options{
		Catalog:    true,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}

	defer func() {
		if closeErr := lib.Close(); closeErr != nil {
			logger.Error("closing library", slog.Any("error", closeErr))
		}
	}()

	svc := lib.Services

	// 6. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)

	// 7. Create HTTP server
	server := http.NewServer(cfg.Server, logger)

	// 8. Setup router with all middleware and routes
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:            logger,
		AuthConfig:        &cfg.Auth,
		AppConfig:         &cfg.App,
		HealthHandler:     handlers.NewHealthHandler(lib.Health, buildInfo),
		QuoteHandler:      handlers.NewQuoteHandler(svc.Quotes),
		ReadingLogHandler: handlers.NewReadingLogHandler(svc.ReadingLogs),
		ReviewHandler:     handlers.NewReviewHandler(svc.Reviews),
		WishlistHandler:   handlers.NewWishlistHandler(svc.Wishlist),
		SpendingHandler:   handlers.NewSpendingHandler(svc.Spendings),
		ProfileHandler:    handlers.NewProfileHandler(svc.Profile, svc.Dashboard),
		Timeout:           http.DefaultRequestTimeout,
	})

	logger.Info("service ready", slog.String("addr", server.Addr()))

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
