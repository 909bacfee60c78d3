package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local cache with per-entry expiry.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

// NewMemory creates an empty cache reading time from now.
func NewMemory(now func() time.Time) *Memory {
	return &Memory{now: now, entries: make(map[string]entry)}
}

// Get returns a copy of the cached value. Expired entries are evicted lazily.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)

		ok = false
	}

	if !ok {
		return nil, domain.NewNotFoundError("cache entry", key)
	}

	return slices.Clone(e.value), nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.entries[key] = e

	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}
