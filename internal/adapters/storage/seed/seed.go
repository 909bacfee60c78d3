// Package seed loads the bundled sample library into empty stores.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Fixtures is the sample library.
type Fixtures struct {
	Profiles    []domain.Profile        `json:"profiles"`
	Quotes      []domain.Quote          `json:"quotes"`
	Tags        []domain.Tag            `json:"tags"`
	ReadingLogs []domain.ReadingLog     `json:"readingLogs"`
	Sessions    []domain.ReadingSession `json:"readingSessions"`
	Reviews     []domain.Review         `json:"reviews"`
	Wishlist    []domain.WishlistItem   `json:"wishlist"`
	Spendings   []domain.Spending       `json:"spendings"`
}

// Parse decodes fixtures from YAML. Keys use the same names as the JSON
// representation of each entity, so the YAML tree is re-encoded as JSON
// and decoded with the entities' own tags.
func Parse(data []byte) (*Fixtures, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("re-encoding fixtures: %w", err)
	}

	var fx Fixtures
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}

	return &fx, nil
}

// Default returns the embedded sample library.
func Default() (*Fixtures, error) {
	return Parse(fixturesYAML)
}

// Load writes fx into every collection that is currently empty and
// reports how many records were written per table. Collections that
// already hold data are left alone.
func Load(ctx context.Context, stores *storage.Stores, fx *Fixtures) (map[string]int, error) {
	loaded := make(map[string]int)

	steps := []struct {
		table string
		load  func() (int, error)
	}{
		{storage.TableProfiles, func() (int, error) { return fill(ctx, stores.Profiles, fx.Profiles) }},
		{storage.TableQuotes, func() (int, error) { return fill(ctx, stores.Quotes, fx.Quotes) }},
		{storage.TableTags, func() (int, error) { return fill(ctx, stores.Tags, fx.Tags) }},
		{storage.TableReadingLogs, func() (int, error) { return fill(ctx, stores.ReadingLogs, fx.ReadingLogs) }},
		{storage.TableReadingSessions, func() (int, error) { return fill(ctx, stores.Sessions, fx.Sessions) }},
		{storage.TableReviews, func() (int, error) { return fill(ctx, stores.Reviews, fx.Reviews) }},
		{storage.TableWishlist, func() (int, error) { return fill(ctx, stores.Wishlist, fx.Wishlist) }},
		{storage.TableSpendings, func() (int, error) { return fill(ctx, stores.Spendings, fx.Spendings) }},
	}

	for _, step := range steps {
		n, err := step.load()
		if err != nil {
			return loaded, fmt.Errorf("seeding %s: %w", step.table, err)
		}

		if n > 0 {
			loaded[step.table] = n
		}
	}

	return loaded, nil
}

func fill[T domain.Entity](ctx context.Context, repo ports.Repository[T], items []T) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}

	if len(existing) > 0 {
		return 0, nil
	}

	if err := repo.ReplaceAll(ctx, items); err != nil {
		return 0, err
	}

	return len(items), nil
}
