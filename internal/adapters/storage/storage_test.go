package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// openers returns a constructor per driver available in this environment.
func openers(t *testing.T) map[string]func(t *testing.T) *Stores {
	t.Helper()

	drivers := map[string]func(t *testing.T) *Stores{
		DriverMemory: func(t *testing.T) *Stores {
			t.Helper()

			return NewMemoryStores()
		},
		DriverSQLite: func(t *testing.T) *Stores {
			t.Helper()

			stores, err := Open(context.Background(), Config{
				Driver: DriverSQLite,
				DSN:    filepath.Join(t.TempDir(), "biblioteca.db"),
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = stores.Close() })

			return stores
		},
	}

	if dsn := os.Getenv("BIBLIOTECA_TEST_POSTGRES_DSN"); dsn != "" {
		drivers[DriverPostgres] = func(t *testing.T) *Stores {
			t.Helper()

			stores, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: dsn})
			require.NoError(t, err)
			require.NoError(t, stores.Quotes.ReplaceAll(context.Background(), nil))
			t.Cleanup(func() { _ = stores.Close() })

			return stores
		}
	}

	return drivers
}

func sampleQuote(id, book string) domain.Quote {
	return domain.Quote{
		ID:        id,
		Text:      "Not all those who wander are lost.",
		Book:      book,
		Author:    "J.R.R. Tolkien",
		Tags:      []string{"fiction", "classic"},
		DateAdded: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}
}

func quoteIDs(quotes []domain.Quote) []string {
	ids := make([]string, 0, len(quotes))
	for _, q := range quotes {
		ids = append(ids, q.ID)
	}

	return ids
}

func TestRepository_Contract(t *testing.T) {
	for driver, open := range openers(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t).Quotes

			t.Run("create keeps insertion order", func(t *testing.T) {
				for _, id := range []string{"c", "a", "b"} {
					require.NoError(t, repo.Create(ctx, sampleQuote(id, "The Fellowship of the Ring")))
				}

				all, err := repo.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"c", "a", "b"}, quoteIDs(all))
			})

			t.Run("duplicate create conflicts", func(t *testing.T) {
				err := repo.Create(ctx, sampleQuote("a", "Dune"))

				assert.True(t, domain.IsConflict(err))
			})

			t.Run("get round-trips", func(t *testing.T) {
				got, err := repo.Get(ctx, "a")
				require.NoError(t, err)

				want := sampleQuote("a", "The Fellowship of the Ring")
				assert.Equal(t, want.Book, got.Book)
				assert.Equal(t, want.Tags, got.Tags)
				assert.True(t, want.DateAdded.Equal(got.DateAdded))
			})

			t.Run("update keeps position", func(t *testing.T) {
				require.NoError(t, repo.Update(ctx, sampleQuote("a", "The Two Towers")))

				all, err := repo.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"c", "a", "b"}, quoteIDs(all))
				assert.Equal(t, "The Two Towers", all[1].Book)
			})

			t.Run("update unknown is not found", func(t *testing.T) {
				err := repo.Update(ctx, sampleQuote("zzz", "Dune"))

				assert.True(t, domain.IsNotFound(err))
			})

			t.Run("delete removes exactly one", func(t *testing.T) {
				require.NoError(t, repo.Delete(ctx, "a"))

				all, err := repo.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"c", "b"}, quoteIDs(all))

				_, err = repo.Get(ctx, "a")
				assert.True(t, domain.IsNotFound(err))
			})

			t.Run("delete unknown is not found", func(t *testing.T) {
				assert.True(t, domain.IsNotFound(repo.Delete(ctx, "a")))
			})

			t.Run("replace all", func(t *testing.T) {
				require.NoError(t, repo.ReplaceAll(ctx, []domain.Quote{sampleQuote("x", "Dune"), sampleQuote("y", "Dune")}))

				all, err := repo.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"x", "y"}, quoteIDs(all))
			})
		})
	}
}

func TestMemory_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[domain.Quote](domain.EntityQuote)
	require.NoError(t, repo.Create(ctx, sampleQuote("a", "Dune")))

	first, err := repo.List(ctx)
	require.NoError(t, err)

	first[0].Book = "changed"

	second, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dune", second[0].Book)
}

func TestMemory_DeleteRemovesExactlyOneMatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[domain.Quote](domain.EntityQuote)
	require.NoError(t, repo.ReplaceAll(ctx, []domain.Quote{
		sampleQuote("a", "Dune"),
		sampleQuote("dup", "Emma"),
		sampleQuote("dup", "Persuasion"),
	}))

	before, err := repo.List(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "dup"))

	after, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "dup"}, quoteIDs(after))
	assert.Equal(t, "Persuasion", after[1].Book)
	assert.Len(t, before, 3)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestOpen_SQLiteHealth(t *testing.T) {
	stores := openers(t)[DriverSQLite](t)

	require.NotNil(t, stores.Checker)
	assert.Equal(t, "sqlite", stores.Checker.Name())
	assert.NoError(t, stores.Checker.Check(context.Background()))
}

func TestStores_Counts(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores()

	require.NoError(t, stores.Quotes.Create(ctx, sampleQuote("a", "Dune")))
	require.NoError(t, stores.Reviews.Create(ctx, domain.Review{ID: "r1", Book: "Dune"}))

	counts, err := stores.Counts(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, counts[TableQuotes])
	assert.Equal(t, 1, counts[TableReviews])
	assert.Equal(t, 0, counts[TableSpendings])
	assert.Len(t, counts, len(Tables))
}

var _ ports.Repository[domain.Quote] = (*Documents[domain.Quote])(nil)
