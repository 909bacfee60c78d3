package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/domain/collection"
)

// Memory is an insertion-ordered in-process repository.
type Memory[T domain.Entity] struct {
	mu     sync.RWMutex
	entity string
	items  []T
}

// NewMemory creates an empty repository for entity.
func NewMemory[T domain.Entity](entity string) *Memory[T] {
	return &Memory[T]{entity: entity}
}

// List returns a copy of every record in insertion order.
func (m *Memory[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, len(m.items))
	copy(out, m.items)

	return out, nil
}

// Get retrieves a record by its identifier.
func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := m.indexOf(id); idx >= 0 {
		return m.items[idx], nil
	}

	var zero T

	return zero, domain.NewNotFoundError(m.entity, id)
}

// Create appends a new record.
func (m *Memory[T]) Create(_ context.Context, item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(item.EntityID()) >= 0 {
		return domain.NewConflictError(m.entity, fmt.Sprintf("id %q already exists", item.EntityID()))
	}

	m.items = append(m.items, item)

	return nil
}

// Update replaces a record in place.
func (m *Memory[T]) Update(_ context.Context, item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(item.EntityID())
	if idx < 0 {
		return domain.NewNotFoundError(m.entity, item.EntityID())
	}

	m.items[idx] = item

	return nil
}

// Delete removes exactly the record with id.
func (m *Memory[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rest, ok := collection.RemoveByID(m.items, id, func(item T) string { return item.EntityID() })
	if !ok {
		return domain.NewNotFoundError(m.entity, id)
	}

	m.items = rest

	return nil
}

// ReplaceAll swaps the whole collection.
func (m *Memory[T]) ReplaceAll(_ context.Context, items []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = slices.Clone(items)

	return nil
}

func (m *Memory[T]) indexOf(id string) int {
	return slices.IndexFunc(m.items, func(item T) bool { return item.EntityID() == id })
}
