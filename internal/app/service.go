// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// Application Layer Responsibilities:
//   - Orchestrate use cases (business workflows)
//   - Coordinate between domain and infrastructure
//   - Handle cross-cutting concerns (logging, cache invalidation)
//   - Enforce business rules that span multiple entities
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters)
//   - Database queries (that's repository adapters)
//   - Core domain logic (that's the domain layer)
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/domain/collection"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// record is an entity that can check its own business rules.
type record interface {
	domain.Entity
	Validate() error
}

// ChangeFunc is notified after any collection is mutated.
type ChangeFunc func(ctx context.Context, table string)

// Collection provides the use cases shared by every feature collection:
// filtered listing, lookup, validated writes and delete by id.
// It depends on port interfaces, not concrete implementations.
//
// Example usage:
//
//	quotes := app.NewCollection(stores.Quotes, domain.EntityQuote, "quotes", logger, dashboard.Invalidate)
//	visible, err := quotes.List(ctx, filter.Set())
type Collection[T record] struct {
	repo     ports.Repository[T]
	entity   string
	table    string
	logger   *slog.Logger
	onChange ChangeFunc
}

// NewCollection creates the shared use cases for one collection.
// A nil logger uses the default; a nil onChange disables notifications.
func NewCollection[T record](
	repo ports.Repository[T],
	entity, table string,
	logger *slog.Logger,
	onChange ChangeFunc,
) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return &Collection[T]{
		repo:     repo,
		entity:   entity,
		table:    table,
		logger:   logger,
		onChange: onChange,
	}
}

// logFor prefers the request-scoped logger so request ids are attached.
func (c *Collection[T]) logFor(ctx context.Context, method string) *slog.Logger {
	return logging.FromContextOr(ctx, c.logger).With(
		slog.String("component", "app."+c.table),
		slog.String("method", method),
	)
}

// All returns the backing collection in insertion order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	items, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.table, err)
	}

	return items, nil
}

// List returns the derived view: the backing collection narrowed and
// ordered by set.
func (c *Collection[T]) List(ctx context.Context, set collection.Set[T]) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	visible := collection.Apply(items, set)

	c.logFor(ctx, "List").DebugContext(ctx, "filtered collection",
		slog.Int("total", len(items)),
		slog.Int("visible", len(visible)),
	)

	return visible, nil
}

// Get retrieves one record by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	if strings.TrimSpace(id) == "" {
		return zero, domain.NewValidationError("id", "cannot be empty")
	}

	item, err := c.repo.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("getting %s: %w", c.entity, err)
	}

	return item, nil
}

// Delete removes exactly the record with id. Unknown ids are not found.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.Get(ctx, id); err != nil {
		return err
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting %s: %w", c.entity, err)
	}

	c.logFor(ctx, "Delete").InfoContext(ctx, "deleted "+c.entity, slog.String("id", id))
	c.changed(ctx)

	return nil
}

// insert validates and stores a new record.
func (c *Collection[T]) insert(ctx context.Context, item T) (T, error) {
	var zero T

	if err := item.Validate(); err != nil {
		return zero, err
	}

	if err := c.repo.Create(ctx, item); err != nil {
		return zero, fmt.Errorf("creating %s: %w", c.entity, err)
	}

	c.logFor(ctx, "Create").InfoContext(ctx, "created "+c.entity, slog.String("id", item.EntityID()))
	c.changed(ctx)

	return item, nil
}

// modify loads the record, applies mutate, validates and stores the result.
func (c *Collection[T]) modify(ctx context.Context, id string, mutate func(*T) error) (T, error) {
	var zero T

	item, err := c.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	if err := mutate(&item); err != nil {
		return zero, err
	}

	if err := item.Validate(); err != nil {
		return zero, err
	}

	if err := c.repo.Update(ctx, item); err != nil {
		return zero, fmt.Errorf("updating %s: %w", c.entity, err)
	}

	c.logFor(ctx, "Update").InfoContext(ctx, "updated "+c.entity, slog.String("id", id))
	c.changed(ctx)

	return item, nil
}

func (c *Collection[T]) changed(ctx context.Context) {
	if c.onChange != nil {
		c.onChange(ctx, c.table)
	}
}

// Clock returns the current time. Services take one so tests can pin dates.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}

	return c()
}
