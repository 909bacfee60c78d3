// Package cache implements ports.Cache in process memory and on Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// Supported drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and configures the cache driver.
type Config struct {
	Driver   string
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open creates the cache for cfg.Driver. The returned checker is nil
// unless the cache lives out of process.
func Open(ctx context.Context, cfg Config) (ports.Cache, ports.HealthChecker, error) {
	switch cfg.Driver {
	case DriverNone, "":
		return Noop{}, nil, nil
	case DriverMemory:
		return NewMemory(time.Now), nil, nil
	case DriverRedis:
		r, err := NewRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}

		return r, r, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Noop is a cache that never holds anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(_ context.Context, key string) ([]byte, error) {
	return nil, domain.NewNotFoundError("cache entry", key)
}

// Set discards the value.
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (Noop) Delete(context.Context, string) error { return nil }
