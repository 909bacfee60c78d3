// Package bootstrap assembles the library from configuration. The HTTP
// service and biblioctl both start here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/biblioteca/internal/adapters/cache"
	"github.com/jsamuelsen/biblioteca/internal/adapters/clients"
	"github.com/jsamuelsen/biblioteca/internal/adapters/clients/acl"
	"github.com/jsamuelsen/biblioteca/internal/adapters/flags"
	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/adapters/storage/seed"
	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/platform/config"
	"github.com/jsamuelsen/biblioteca/internal/platform/telemetry"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// Options tune Open for the caller.
type Options struct {
	// Catalog connects the downstream book catalog.
	Catalog bool

	// Registerer receives the collection gauge. Nil disables it.
	Registerer prometheus.Registerer

	// Clock overrides time.Now for the services.
	Clock app.Clock
}

// Library is an opened library: its stores, services and health checks.
type Library struct {
	Stores   *storage.Stores
	Services *app.Services
	Health   *ports.HealthChecks
	Flags    *flags.Static

	closers []func() error
}

// Open connects storage and cache, seeds empty stores when configured,
// and builds the application services. Close releases what Open acquired.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *Library, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	stores, err := storage.Open(ctx, storage.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}

	lib := &Library{
		Stores:  stores,
		Health:  ports.NewHealthRegistry(),
		Flags:   flags.NewStatic(cfg.Features.Flags),
		closers: []func() error{stores.Close},
	}

	defer func() {
		if err != nil {
			_ = lib.Close()
		}
	}()

	if stores.Checker != nil {
		if err := lib.Health.Register(stores.Checker); err != nil {
			return nil, err
		}
	}

	if cfg.Storage.Seed {
		if err := Seed(ctx, stores, logger); err != nil {
			return nil, err
		}
	}

	summaryCache, cacheChecker, err := cache.Open(ctx, cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Driver, err)
	}

	if closer, ok := summaryCache.(io.Closer); ok {
		lib.closers = append(lib.closers, closer.Close)
	}

	if cacheChecker != nil {
		if err := lib.Health.RegisterOptional(cacheChecker); err != nil {
			return nil, err
		}
	}

	var catalog ports.CatalogClient

	if opts.Catalog {
		c, err := newCatalog(cfg, logger)
		if err != nil {
			return nil, err
		}

		if err := lib.Health.RegisterOptional(c); err != nil {
			return nil, err
		}

		catalog = c
	}

	var onChange app.ChangeFunc

	if opts.Registerer != nil {
		gauge, err := telemetry.NewCollectionGauge(opts.Registerer, stores.Counts, logger)
		if err != nil {
			return nil, fmt.Errorf("registering collection gauge: %w", err)
		}

		if err := gauge.Refresh(ctx); err != nil {
			logger.WarnContext(ctx, "initial collection count failed", slog.Any("error", err))
		}

		onChange = gauge.Observe
	}

	lib.Services = app.NewServices(app.ServicesConfig{
		Repos: app.Repositories{
			Quotes:      stores.Quotes,
			Tags:        stores.Tags,
			ReadingLogs: stores.ReadingLogs,
			Sessions:    stores.Sessions,
			Reviews:     stores.Reviews,
			Wishlist:    stores.Wishlist,
			Spendings:   stores.Spendings,
			Profiles:    stores.Profiles,
		},
		Catalog:  catalog,
		Flags:    lib.Flags,
		Cache:    summaryCache,
		CacheTTL: cfg.Cache.TTL,
		Budget: app.Budget{
			Monthly:    cfg.Budget.Monthly,
			WarnRatio:  cfg.Budget.WarnRatio,
			TopVendors: cfg.Budget.TopVendors,
		},
		WishlistBudget:    cfg.Budget.Wishlist,
		EnrichConcurrency: cfg.Features.EnrichConcurrency,
		OnChange:          onChange,
		Logger:            logger,
		Clock:             opts.Clock,
	})

	return lib, nil
}

func newCatalog(cfg *config.Config, logger *slog.Logger) (*acl.CatalogClient, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Catalog.BaseURL,
		ServiceName: cfg.Services.Catalog.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + cfg.App.Version,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating catalog client: %w", err)
	}

	return acl.NewCatalogClient(acl.CatalogClientConfig{Client: client, Logger: logger}), nil
}

// Seed loads the bundled sample library into whichever collections are empty.
func Seed(ctx context.Context, stores *storage.Stores, logger *slog.Logger) error {
	fx, err := seed.Default()
	if err != nil {
		return err
	}

	loaded, err := seed.Load(ctx, stores, fx)
	if err != nil {
		return err
	}

	if len(loaded) > 0 {
		logger.InfoContext(ctx, "seeded sample library", slog.Any("records", loaded))
	}

	return nil
}

// Close releases the cache and storage connections.
func (l *Library) Close() error {
	var errs []error

	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
