// Package flags provides a configuration-backed feature flag adapter.
package flags

import (
	"context"
	"sync"
)

// Static evaluates flags from a fixed map, typically loaded from config.
// Flags can be overridden at runtime with Set.
type Static struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewStatic copies flags into a new adapter.
func NewStatic(flags map[string]bool) *Static {
	copied := make(map[string]bool, len(flags))
	for k, v := range flags {
		copied[k] = v
	}

	return &Static{flags: copied}
}

// IsEnabled implements ports.FeatureFlags.
func (s *Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.flags[flag]; ok {
		return v
	}

	return defaultValue
}

// Set overrides a flag.
func (s *Static) Set(flag string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flags[flag] = enabled
}
