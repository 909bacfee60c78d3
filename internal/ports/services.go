// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrConflict, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// Repository persists one collection of entities.
// Implementations keep insertion order: List returns records in the order
// they were first created, which is the order filtering preserves.
//
// Example usage in application layer:
//
//	type QuoteService struct {
//	    quotes ports.Repository[domain.Quote]
//	}
type Repository[T domain.Entity] interface {
	// List returns every record in insertion order.
	List(ctx context.Context) ([]T, error)

	// Get retrieves a record by its identifier.
	// Returns domain.ErrNotFound if the record does not exist.
	Get(ctx context.Context, id string) (T, error)

	// Create stores a new record.
	// Returns domain.ErrConflict if a record with the same identifier exists.
	Create(ctx context.Context, item T) error

	// Update replaces an existing record, keeping its position.
	// Returns domain.ErrNotFound if the record does not exist.
	Update(ctx context.Context, item T) error

	// Delete removes a record by its identifier.
	// Returns domain.ErrNotFound if the record does not exist.
	Delete(ctx context.Context, id string) error

	// ReplaceAll swaps the whole collection atomically.
	ReplaceAll(ctx context.Context, items []T) error
}

// CatalogClient looks books up in the external catalog service.
// Adapters implement this interface to integrate with the downstream service.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map external errors to domain errors
//   - Transform external DTOs to domain types
type CatalogClient interface {
	// GetBook retrieves a catalog book by its identifier.
	// Returns domain.ErrNotFound if the catalog has no such book and
	// domain.ErrUnavailable if the service is unreachable.
	GetBook(ctx context.Context, id string) (*domain.CatalogBook, error)
}

// Cache defines the contract for caching operations.
// Implementations may use Redis or an in-process map.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns domain.ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Does not return an error if the key does not exist.
	Delete(ctx context.Context, key string) error
}
