package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/cache"
	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/mocks"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

type dashboardFixture struct {
	dashboard *DashboardService
	quotes    *QuoteService
	spendings *SpendingService
}

func newDashboardFixture(t *testing.T, dc *DashboardCache) dashboardFixture {
	t.Helper()

	stores := storage.NewMemoryStores()

	var onChange ChangeFunc
	if dc != nil {
		onChange = dc.Invalidate
	}

	logs := NewReadingLogService(ReadingLogServiceConfig{
		Logs: stores.ReadingLogs, Sessions: stores.Sessions, Logger: discardLogger(), Clock: fixedClock(testNow), OnChange: onChange,
	})
	quotes := NewQuoteService(QuoteServiceConfig{
		Quotes: stores.Quotes, Tags: stores.Tags, Logger: discardLogger(), Clock: fixedClock(testNow), OnChange: onChange,
	})
	reviews := NewReviewService(ReviewServiceConfig{
		Reviews: stores.Reviews, Logger: discardLogger(), Clock: fixedClock(testNow), OnChange: onChange,
	})
	wishlist := NewWishlistService(WishlistServiceConfig{
		Wishlist: stores.Wishlist, Library: logs, Logger: discardLogger(), Clock: fixedClock(testNow), OnChange: onChange,
	})
	spendings := NewSpendingService(SpendingServiceConfig{
		Spendings: stores.Spendings, Logger: discardLogger(), Clock: fixedClock(testNow), OnChange: onChange,
	})

	return dashboardFixture{
		dashboard: NewDashboardService(DashboardServiceConfig{
			Logs:      logs,
			Quotes:    quotes,
			Reviews:   reviews,
			Wishlist:  wishlist,
			Spendings: spendings,
			Cache:     dc,
			Clock:     fixedClock(testNow),
		}),
		quotes:    quotes,
		spendings: spendings,
	}
}

func TestNewDashboardService_PanicsWithoutServices(t *testing.T) {
	assert.Panics(t, func() { NewDashboardService(DashboardServiceConfig{}) })
}

func TestDashboardService_Aggregates(t *testing.T) {
	f := newDashboardFixture(t, nil)
	ctx := context.Background()

	mustCreateQuote(t, f.quotes, domain.Quote{Text: "a", Book: "Dune", Author: "Frank Herbert", Favorite: true})
	mustCreateQuote(t, f.quotes, domain.Quote{Text: "b", Book: "Emma", Author: "Jane Austen"})

	_, err := f.spendings.Create(ctx, domain.Spending{Title: "Dune", Category: "Sci-fi", Amount: 20})
	require.NoError(t, err)

	d, err := f.dashboard.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Quotes)
	assert.Equal(t, 1, d.FavoriteQuotes)
	assert.InDelta(t, 20.0, d.Spending.ThisMonth, 0.001)
	assert.Equal(t, DefaultWishlistBudget, d.Wishlist.MonthlyBudget)
	assert.Equal(t, testNow, d.GeneratedAt)
}

func TestDashboardService_CachesUntilMutation(t *testing.T) {
	dc := NewDashboardCache(cache.NewMemory(func() time.Time { return testNow }), nil, time.Minute, discardLogger())
	f := newDashboardFixture(t, dc)
	ctx := context.Background()

	mustCreateQuote(t, f.quotes, domain.Quote{Text: "a", Book: "Dune", Author: "Frank Herbert"})

	first, err := f.dashboard.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quotes)

	cached, ok := dc.load(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, cached.Quotes)

	mustCreateQuote(t, f.quotes, domain.Quote{Text: "b", Book: "Emma", Author: "Jane Austen"})

	_, ok = dc.load(ctx)
	assert.False(t, ok)

	second, err := f.dashboard.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Quotes)
}

func TestDashboardCache_FlagDisabled(t *testing.T) {
	flags := mocks.NewMockFeatureFlags(t)
	flags.EXPECT().IsEnabled(mock.Anything, ports.FlagDashboardCache, true).Return(false)

	store := mocks.NewMockCache(t)
	dc := NewDashboardCache(store, flags, 0, nil)

	_, ok := dc.load(context.Background())
	assert.False(t, ok)

	dc.store(context.Background(), 0, domain.Dashboard{})
	assert.Equal(t, DefaultDashboardTTL, dc.ttl)
}

func TestDashboardCache_FailuresDegrade(t *testing.T) {
	store := mocks.NewMockCache(t)
	store.EXPECT().Get(mock.Anything, DashboardCacheKey).Return(nil, domain.NewUnavailableError("redis", "connection refused"))
	store.EXPECT().Set(mock.Anything, DashboardCacheKey, mock.Anything, time.Minute).Return(domain.NewUnavailableError("redis", "connection refused"))
	store.EXPECT().Delete(mock.Anything, DashboardCacheKey).Return(domain.NewUnavailableError("redis", "connection refused"))

	f := newDashboardFixture(t, NewDashboardCache(store, nil, time.Minute, discardLogger()))
	ctx := context.Background()

	d, err := f.dashboard.Dashboard(ctx)
	require.NoError(t, err)
	assert.Zero(t, d.Quotes)

	mustCreateQuote(t, f.quotes, domain.Quote{Text: "a", Book: "Dune", Author: "Frank Herbert"})
}

func TestDashboardCache_NilIsDisabled(t *testing.T) {
	var dc *DashboardCache

	_, ok := dc.load(context.Background())
	assert.False(t, ok)

	dc.store(context.Background(), 0, domain.Dashboard{})
	dc.Invalidate(context.Background(), "quotes")
}
