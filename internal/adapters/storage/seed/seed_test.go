package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	fx, err := Default()
	require.NoError(t, err)

	require.Len(t, fx.Quotes, 6)
	assert.Equal(t, "Atomic Habits", fx.Quotes[0].Book)
	require.NotNil(t, fx.Quotes[0].PageNumber)
	assert.Equal(t, 45, *fx.Quotes[0].PageNumber)
	assert.Equal(t, 2024, fx.Quotes[0].DateAdded.Year())

	require.Len(t, fx.Profiles, 1)
	assert.Equal(t, domain.ProfileID, fx.Profiles[0].ID)

	for _, q := range fx.Quotes {
		require.NoError(t, q.Validate(), q.ID)
	}

	for _, l := range fx.ReadingLogs {
		require.NoError(t, l.Validate(), l.ID)
	}

	for _, r := range fx.Reviews {
		require.NoError(t, r.Validate(), r.ID)
	}

	for _, w := range fx.Wishlist {
		require.NoError(t, w.Validate(), w.ID)
	}

	for _, s := range fx.Spendings {
		require.NoError(t, s.Validate(), s.ID)
	}

	require.NoError(t, fx.Profiles[0].Validate())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("quotes: [unclosed"))

	require.Error(t, err)
}

func TestLoad_OnlyFillsEmptyCollections(t *testing.T) {
	ctx := context.Background()
	stores := storage.NewMemoryStores()

	require.NoError(t, stores.Reviews.Create(ctx, domain.Review{ID: "mine", Book: "Dune"}))

	fx, err := Default()
	require.NoError(t, err)

	loaded, err := Load(ctx, stores, fx)
	require.NoError(t, err)

	assert.Equal(t, 6, loaded[storage.TableQuotes])
	assert.NotContains(t, loaded, storage.TableReviews)

	reviews, err := stores.Reviews.List(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "mine", reviews[0].ID)

	again, err := Load(ctx, stores, fx)
	require.NoError(t, err)
	assert.Empty(t, again)
}
