package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// Repositories are the backing collections of every feature.
type Repositories struct {
	Quotes      ports.Repository[domain.Quote]
	Tags        ports.Repository[domain.Tag]
	ReadingLogs ports.Repository[domain.ReadingLog]
	Sessions    ports.Repository[domain.ReadingSession]
	Reviews     ports.Repository[domain.Review]
	Wishlist    ports.Repository[domain.WishlistItem]
	Spendings   ports.Repository[domain.Spending]
	Profiles    ports.Repository[domain.Profile]
}

// ServicesConfig wires the application services together.
type ServicesConfig struct {
	Repos Repositories

	// Optional collaborators.
	Catalog ports.CatalogClient
	Flags   ports.FeatureFlags
	Cache   ports.Cache

	CacheTTL          time.Duration
	Budget            Budget
	WishlistBudget    float64
	EnrichConcurrency int

	// OnChange is called after every mutation, after the dashboard cache
	// has been invalidated.
	OnChange ChangeFunc

	Logger *slog.Logger
	Clock  Clock
}

// Services is the assembled application layer.
type Services struct {
	Quotes         *QuoteService
	ReadingLogs    *ReadingLogService
	Reviews        *ReviewService
	Wishlist       *WishlistService
	Spendings      *SpendingService
	Profile        *ProfileService
	Dashboard      *DashboardService
	DashboardCache *DashboardCache
}

// NewServices builds every service over cfg.Repos. Mutations through any
// service invalidate the cached dashboard.
func NewServices(cfg ServicesConfig) *Services {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	dashboardCache := NewDashboardCache(cfg.Cache, cfg.Flags, cfg.CacheTTL, cfg.Logger)

	onChange := func(ctx context.Context, table string) {
		dashboardCache.Invalidate(ctx, table)

		if cfg.OnChange != nil {
			cfg.OnChange(ctx, table)
		}
	}

	logs := NewReadingLogService(ReadingLogServiceConfig{
		Logs:              cfg.Repos.ReadingLogs,
		Sessions:          cfg.Repos.Sessions,
		Catalog:           cfg.Catalog,
		Flags:             cfg.Flags,
		Logger:            cfg.Logger,
		Clock:             cfg.Clock,
		OnChange:          onChange,
		EnrichConcurrency: cfg.EnrichConcurrency,
	})

	quotes := NewQuoteService(QuoteServiceConfig{
		Quotes:   cfg.Repos.Quotes,
		Tags:     cfg.Repos.Tags,
		Logger:   cfg.Logger,
		Clock:    cfg.Clock,
		OnChange: onChange,
	})

	reviews := NewReviewService(ReviewServiceConfig{
		Reviews:  cfg.Repos.Reviews,
		Logger:   cfg.Logger,
		Clock:    cfg.Clock,
		OnChange: onChange,
	})

	wishlist := NewWishlistService(WishlistServiceConfig{
		Wishlist:      cfg.Repos.Wishlist,
		Library:       logs,
		MonthlyBudget: cfg.WishlistBudget,
		Logger:        cfg.Logger,
		Clock:         cfg.Clock,
		OnChange:      onChange,
	})

	spendings := NewSpendingService(SpendingServiceConfig{
		Spendings: cfg.Repos.Spendings,
		Budget:    cfg.Budget,
		Logger:    cfg.Logger,
		Clock:     cfg.Clock,
		OnChange:  onChange,
	})

	profile := NewProfileService(ProfileServiceConfig{
		Profiles: cfg.Repos.Profiles,
		Logs:     cfg.Repos.ReadingLogs,
		Quotes:   cfg.Repos.Quotes,
		Reviews:  cfg.Repos.Reviews,
		Logger:   cfg.Logger,
		Clock:    cfg.Clock,
		OnChange: onChange,
	})

	return &Services{
		Quotes:      quotes,
		ReadingLogs: logs,
		Reviews:     reviews,
		Wishlist:    wishlist,
		Spendings:   spendings,
		Profile:     profile,
		Dashboard: NewDashboardService(DashboardServiceConfig{
			Logs:      logs,
			Quotes:    quotes,
			Reviews:   reviews,
			Wishlist:  wishlist,
			Spendings: spendings,
			Cache:     dashboardCache,
			Clock:     cfg.Clock,
		}),
		DashboardCache: dashboardCache,
	}
}
