package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

func newProfileService(t *testing.T, stores *storage.Stores) *ProfileService {
	t.Helper()

	return NewProfileService(ProfileServiceConfig{
		Profiles: stores.Profiles,
		Logs:     stores.ReadingLogs,
		Quotes:   stores.Quotes,
		Reviews:  stores.Reviews,
		Logger:   discardLogger(),
		Clock:    fixedClock(testNow),
	})
}

func TestNewProfileService_PanicsWithoutRepositories(t *testing.T) {
	stores := storage.NewMemoryStores()

	assert.Panics(t, func() {
		NewProfileService(ProfileServiceConfig{Profiles: stores.Profiles, Logs: stores.ReadingLogs})
	})
}

func TestProfileService_UpdateUpserts(t *testing.T) {
	svc := newProfileService(t, storage.NewMemoryStores())
	ctx := context.Background()

	_, err := svc.Profile(ctx)
	assert.True(t, domain.IsNotFound(err))

	created, err := svc.Update(ctx, domain.Profile{Name: "Ayasha", AnnualGoal: 24})
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileID, created.ID)
	assert.Equal(t, testNow, created.Joined)

	updated, err := svc.Update(ctx, domain.Profile{
		Name:        "Ayasha Hossain",
		Location:    "Dhaka",
		SocialLinks: map[string]string{"goodreads": "https://www.goodreads.com/ayasha"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dhaka", updated.Location)
	assert.Equal(t, testNow, updated.Joined)

	_, err = svc.Update(ctx, domain.Profile{Name: "Ayasha", SocialLinks: map[string]string{"x": "not a url"}})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "socialLinks.x")
}

func TestProfileService_View(t *testing.T) {
	stores := storage.NewMemoryStores()
	svc := newProfileService(t, stores)
	ctx := context.Background()

	_, err := svc.View(ctx)
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.Update(ctx, domain.Profile{Name: "Ayasha", AnnualGoal: 4})
	require.NoError(t, err)

	finished := datePtr(2024, time.March, 1)
	require.NoError(t, stores.ReadingLogs.ReplaceAll(ctx, []domain.ReadingLog{
		{ID: "l1", Title: "Dune", Author: "Frank Herbert", Status: domain.StatusRead, FinishDate: finished},
		{ID: "l2", Title: "Emma", Author: "Jane Austen", Status: domain.StatusCurrentlyReading},
	}))
	require.NoError(t, stores.Quotes.ReplaceAll(ctx, []domain.Quote{
		{ID: "q1", Text: "a", Book: "Dune", Author: "Frank Herbert"},
	}))
	require.NoError(t, stores.Reviews.ReplaceAll(ctx, []domain.Review{
		{ID: "r1", Book: "Dune", Author: "Frank Herbert", Rating: 5, Takeaways: "x"},
		{ID: "r2", Book: "Emma", Author: "Jane Austen", Rating: 4, Takeaways: "y"},
	}))

	view, err := svc.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ayasha", view.Profile.Name)
	assert.Equal(t, domain.ProfileStats{
		BooksRead:     1,
		BooksOwned:    2,
		Quotes:        1,
		Reviews:       2,
		AverageRating: 4.5,
		GoalProgress:  25,
	}, view.Stats)
}

func TestProfileStats_GoalProgressCapped(t *testing.T) {
	logs := []domain.ReadingLog{
		{Status: domain.StatusRead, FinishDate: datePtr(2024, time.January, 1)},
		{Status: domain.StatusRead, FinishDate: datePtr(2024, time.February, 1)},
	}

	stats := profileStats(domain.Profile{AnnualGoal: 1}, logs, 0, nil, testNow)
	assert.Equal(t, 100, stats.GoalProgress)

	stats = profileStats(domain.Profile{}, logs, 0, nil, testNow)
	assert.Zero(t, stats.GoalProgress)
}
