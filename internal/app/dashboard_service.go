package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// DashboardCacheKey is the cache key of the computed dashboard.
const DashboardCacheKey = "dashboard:summary"

// DefaultDashboardTTL is how long a computed dashboard is served from cache.
const DefaultDashboardTTL = 5 * time.Minute

// DashboardCache stores the computed dashboard between mutations.
// Cache failures are logged and never fail the request.
//
// Every Invalidate bumps a generation. A dashboard is only written back
// when no mutation landed while it was being computed.
type DashboardCache struct {
	cache      ports.Cache
	flags      ports.FeatureFlags
	ttl        time.Duration
	logger     *slog.Logger
	generation atomic.Uint64
}

// NewDashboardCache creates the dashboard cache. A nil cache disables
// caching; a nil flags source leaves it always on.
func NewDashboardCache(cache ports.Cache, flags ports.FeatureFlags, ttl time.Duration, logger *slog.Logger) *DashboardCache {
	if ttl <= 0 {
		ttl = DefaultDashboardTTL
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DashboardCache{cache: cache, flags: flags, ttl: ttl, logger: logger}
}

func (c *DashboardCache) enabled(ctx context.Context) bool {
	if c == nil || c.cache == nil {
		return false
	}

	return c.flags == nil || c.flags.IsEnabled(ctx, ports.FlagDashboardCache, true)
}

// snapshot returns the generation to pass to store.
func (c *DashboardCache) snapshot() uint64 {
	if c == nil {
		return 0
	}

	return c.generation.Load()
}

func (c *DashboardCache) load(ctx context.Context) (domain.Dashboard, bool) {
	if !c.enabled(ctx) {
		return domain.Dashboard{}, false
	}

	raw, err := c.cache.Get(ctx, DashboardCacheKey)
	if err != nil {
		if !domain.IsNotFound(err) {
			c.log(ctx).WarnContext(ctx, "dashboard cache read failed", slog.Any("error", err))
		}

		return domain.Dashboard{}, false
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(raw, &dashboard); err != nil {
		c.log(ctx).WarnContext(ctx, "discarding unreadable cached dashboard", slog.Any("error", err))

		return domain.Dashboard{}, false
	}

	return dashboard, true
}

// store caches dashboard computed at generation gen. If a mutation lands
// between the check and the write, the entry is dropped again.
func (c *DashboardCache) store(ctx context.Context, gen uint64, dashboard domain.Dashboard) {
	if !c.enabled(ctx) || c.generation.Load() != gen {
		return
	}

	raw, err := json.Marshal(dashboard)
	if err != nil {
		c.log(ctx).WarnContext(ctx, "encoding dashboard failed", slog.Any("error", err))

		return
	}

	if err := c.cache.Set(ctx, DashboardCacheKey, raw, c.ttl); err != nil {
		c.log(ctx).WarnContext(ctx, "dashboard cache write failed", slog.Any("error", err))

		return
	}

	if c.generation.Load() != gen {
		c.drop(ctx, "computed before a mutation")
	}
}

// Invalidate drops the cached dashboard. It is a ChangeFunc, so services
// call it after every mutation.
func (c *DashboardCache) Invalidate(ctx context.Context, table string) {
	if c == nil || c.cache == nil {
		return
	}

	c.generation.Add(1)
	c.drop(ctx, table)
}

func (c *DashboardCache) drop(ctx context.Context, reason string) {
	if err := c.cache.Delete(ctx, DashboardCacheKey); err != nil {
		c.log(ctx).WarnContext(ctx, "dashboard cache invalidation failed",
			slog.String("reason", reason),
			slog.Any("error", err),
		)
	}
}

func (c *DashboardCache) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, c.logger).With(slog.String("component", "app.dashboard"))
}

// DashboardService aggregates every feature into one overview.
type DashboardService struct {
	logs      *ReadingLogService
	quotes    *QuoteService
	reviews   *ReviewService
	wishlist  *WishlistService
	spendings *SpendingService
	cache     *DashboardCache
	clock     Clock
}

// DashboardServiceConfig contains configuration for the dashboard service.
type DashboardServiceConfig struct {
	Logs      *ReadingLogService
	Quotes    *QuoteService
	Reviews   *ReviewService
	Wishlist  *WishlistService
	Spendings *SpendingService

	// Cache is optional.
	Cache *DashboardCache

	Clock Clock
}

// NewDashboardService creates a new dashboard service. It panics when a
// feature service is missing.
func NewDashboardService(cfg DashboardServiceConfig) *DashboardService {
	if cfg.Logs == nil || cfg.Quotes == nil || cfg.Reviews == nil || cfg.Wishlist == nil || cfg.Spendings == nil {
		panic("app: dashboard service requires every feature service")
	}

	return &DashboardService{
		logs:      cfg.Logs,
		quotes:    cfg.Quotes,
		reviews:   cfg.Reviews,
		wishlist:  cfg.Wishlist,
		spendings: cfg.Spendings,
		cache:     cfg.Cache,
		clock:     cfg.Clock,
	}
}

// Dashboard returns the overview, from cache when it is still fresh.
func (s *DashboardService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	if cached, ok := s.cache.load(ctx); ok {
		return cached, nil
	}

	gen := s.cache.snapshot()

	reading, quotes, reviews, err := Parallel3(ctx, s.logs.Stats, s.quotes.All, s.reviews.Stats)
	if err != nil {
		return domain.Dashboard{}, err
	}

	wishlist, spending, err := Parallel2(ctx, s.wishlist.Stats,
		func(ctx context.Context) (domain.SpendingSummary, error) { return s.spendings.Summary(ctx, 0) },
	)
	if err != nil {
		return domain.Dashboard{}, err
	}

	dashboard := domain.Dashboard{
		Reading:     reading,
		Quotes:      len(quotes),
		Reviews:     reviews,
		Wishlist:    wishlist,
		Spending:    spending,
		GeneratedAt: s.clock.now(),
	}

	for _, q := range quotes {
		if q.Favorite {
			dashboard.FavoriteQuotes++
		}
	}

	s.cache.store(ctx, gen, dashboard)

	return dashboard, nil
}
