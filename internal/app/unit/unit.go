// Package unit groups the reads and writes of one use case that spans
// several collections. Reads are loaded once per unit; writes are staged
// and applied together by Commit, which undoes the applied ones in reverse
// when a later write fails.
//
//	u := unit.New(ctx)
//	item, err := unit.Load(u, "wishlist:"+id, func(ctx context.Context) (domain.WishlistItem, error) {
//	    return wishlist.Get(ctx, id)
//	})
//	u.Stage(unit.Step{Name: "create reading log", Do: create, Undo: remove})
//	err = u.Commit(ctx)
package unit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

// ErrCommitted is returned when a committed unit is staged to or committed again.
var ErrCommitted = errors.New("unit already committed")

// Step is one staged write. A nil Undo makes it irreversible.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Unit is safe for concurrent use.
type Unit struct {
	ctx context.Context

	mu        sync.Mutex
	reads     map[string]any
	steps     []Step
	committed bool
}

// New creates a unit whose loads run with ctx.
func New(ctx context.Context) *Unit {
	return &Unit{ctx: ctx, reads: make(map[string]any)}
}

// Load returns the value stored under key, calling fetch the first time.
// Failed fetches are not remembered. A value of another type under key is
// an error.
func Load[T any](u *Unit, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	u.mu.Lock()
	cached, ok := u.reads[key]
	u.mu.Unlock()

	if !ok {
		v, err := fetch(u.ctx)
		if err != nil {
			return zero, err
		}

		u.mu.Lock()
		if cached, ok = u.reads[key]; !ok {
			u.reads[key], cached = v, v
		}
		u.mu.Unlock()
	}

	v, ok := cached.(T)
	if !ok {
		return zero, fmt.Errorf("unit key %q holds %T", key, cached)
	}

	return v, nil
}

// Stage queues step for Commit.
func (u *Unit) Stage(step Step) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.committed {
		return ErrCommitted
	}

	u.steps = append(u.steps, step)

	return nil
}

// Steps returns the names of the staged steps in order.
func (u *Unit) Steps() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	names := make([]string, len(u.steps))
	for i, s := range u.steps {
		names[i] = s.Name
	}

	return names
}

// Commit applies the staged steps in order. When one fails, the steps
// already applied are undone newest first; undo failures are logged and
// joined to the returned error.
func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.committed {
		return ErrCommitted
	}

	for i, step := range u.steps {
		if err := step.Do(ctx); err != nil {
			failed := fmt.Errorf("step %q failed: %w", step.Name, err)
			return errors.Join(failed, undo(ctx, u.steps[:i]))
		}
	}

	u.committed = true

	return nil
}

func undo(ctx context.Context, applied []Step) error {
	var errs []error

	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i]
		if step.Undo == nil {
			continue
		}

		if err := step.Undo(ctx); err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "undo failed",
				slog.String("step", step.Name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("undoing %q: %w", step.Name, err))
		}
	}

	return errors.Join(errs...)
}
