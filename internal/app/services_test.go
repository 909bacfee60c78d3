package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/cache"
	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

func memoryRepositories() Repositories {
	stores := storage.NewMemoryStores()

	return Repositories{
		Quotes:      stores.Quotes,
		Tags:        stores.Tags,
		ReadingLogs: stores.ReadingLogs,
		Sessions:    stores.Sessions,
		Reviews:     stores.Reviews,
		Wishlist:    stores.Wishlist,
		Spendings:   stores.Spendings,
		Profiles:    stores.Profiles,
	}
}

func TestNewServices_MutationsInvalidateDashboard(t *testing.T) {
	recorder := &changeRecorder{}
	svc := NewServices(ServicesConfig{
		Repos:    memoryRepositories(),
		Cache:    cache.NewMemory(func() time.Time { return testNow }),
		CacheTTL: time.Minute,
		OnChange: recorder.record,
		Logger:   discardLogger(),
		Clock:    fixedClock(testNow),
	})
	ctx := context.Background()

	_, err := svc.Dashboard.Dashboard(ctx)
	require.NoError(t, err)

	_, cached := svc.DashboardCache.load(ctx)
	require.True(t, cached)

	_, err = svc.Spendings.Create(ctx, domain.Spending{Title: "Dune", Category: "Sci-fi", Amount: 12})
	require.NoError(t, err)

	_, cached = svc.DashboardCache.load(ctx)
	assert.False(t, cached)
	assert.Equal(t, []string{"spendings"}, recorder.tables)

	d, err := svc.Dashboard.Dashboard(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, d.Spending.Total, 0.001)
}

// heldReviews pauses the first List after reading until release is closed.
type heldReviews struct {
	ports.Repository[domain.Review]

	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *heldReviews) List(ctx context.Context) ([]domain.Review, error) {
	items, err := h.Repository.List(ctx)

	h.once.Do(func() {
		close(h.entered)
		<-h.release
	})

	return items, err
}

func TestNewServices_DashboardComputedDuringMutationIsNotCached(t *testing.T) {
	repos := memoryRepositories()
	held := &heldReviews{
		Repository: repos.Reviews,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	repos.Reviews = held

	svc := NewServices(ServicesConfig{
		Repos:    repos,
		Cache:    cache.NewMemory(func() time.Time { return testNow }),
		CacheTTL: time.Minute,
		Logger:   discardLogger(),
		Clock:    fixedClock(testNow),
	})
	ctx := context.Background()

	type outcome struct {
		dashboard domain.Dashboard
		err       error
	}

	done := make(chan outcome, 1)
	go func() {
		d, err := svc.Dashboard.Dashboard(ctx)
		done <- outcome{dashboard: d, err: err}
	}()

	<-held.entered

	_, err := svc.Reviews.Create(ctx, domain.Review{Book: "Dune", Author: "Frank Herbert", Rating: 5, Takeaways: "Fear is the mind-killer."})
	require.NoError(t, err)

	close(held.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Zero(t, first.dashboard.Reviews.Count)

	_, cached := svc.DashboardCache.load(ctx)
	assert.False(t, cached)

	second, err := svc.Dashboard.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Reviews.Count)
}

func TestNewServices_WishlistMovesIntoSharedLibrary(t *testing.T) {
	svc := NewServices(ServicesConfig{Repos: memoryRepositories(), Logger: discardLogger(), Clock: fixedClock(testNow)})
	ctx := context.Background()

	item, err := svc.Wishlist.Create(ctx, domain.WishlistItem{Title: "Piranesi", Authors: []string{"Susanna Clarke"}, Price: 14})
	require.NoError(t, err)

	log, err := svc.Wishlist.MoveToLibrary(ctx, item.ID, domain.StatusCurrentlyReading)
	require.NoError(t, err)

	stored, err := svc.ReadingLogs.Get(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, "Piranesi", stored.Title)
	assert.Equal(t, domain.StatusCurrentlyReading, stored.Status)
}
