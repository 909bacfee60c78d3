package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/platform/config"
)

type transition struct{ from, to State }

// newTestBreaker returns a breaker on a manual clock and the transitions it reports.
func newTestBreaker(maxFailures, halfOpenLimit int) (*Breaker, *time.Time, *[]transition) {
	clock := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	var seen []transition

	b := NewBreaker(config.CircuitBreakerConfig{
		MaxFailures:   maxFailures,
		Timeout:       30 * time.Second,
		HalfOpenLimit: halfOpenLimit,
	}, func(from, to State) {
		seen = append(seen, transition{from, to})
	})
	b.now = func() time.Time { return clock }

	return b, &clock, &seen
}

func fail(b *Breaker, n int) {
	for range n {
		if b.Allow() {
			b.Failure()
		}
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _, seen := newTestBreaker(3, 1)

	fail(b, 2)
	assert.Equal(t, StateClosed, b.State())

	fail(b, 1)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
	assert.Equal(t, []transition{{StateClosed, StateOpen}}, *seen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _, _ := newTestBreaker(3, 1)

	fail(b, 2)
	require.True(t, b.Allow())
	b.Success()
	fail(b, 2)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	b, clock, seen := newTestBreaker(1, 2)

	fail(b, 1)
	require.Equal(t, StateOpen, b.State())

	*clock = clock.Add(29 * time.Second)
	assert.False(t, b.Allow(), "still cooling down")

	*clock = clock.Add(time.Second)
	require.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	require.True(t, b.Allow(), "second probe within the limit")
	assert.False(t, b.Allow(), "probe limit reached")

	b.Success()
	assert.Equal(t, StateHalfOpen, b.State())
	b.Success()
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, *seen)
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, clock, _ := newTestBreaker(1, 2)

	fail(b, 1)
	*clock = clock.Add(time.Minute)

	require.True(t, b.Allow())
	b.Failure()

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "cool-down restarts from the failed probe")
}

func TestBreaker_ConcurrentUse(t *testing.T) {
	b := NewBreaker(config.CircuitBreakerConfig{MaxFailures: 1000, Timeout: time.Second, HalfOpenLimit: 1}, nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			for range 20 {
				if !b.Allow() {
					continue
				}

				if i%2 == 0 {
					b.Success()
				} else {
					b.Failure()
				}
			}
		})
	}
	wg.Wait()

	assert.Equal(t, StateClosed, b.State())
}

func TestState_String(t *testing.T) {
	for state, want := range map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(9):      "unknown",
	} {
		assert.Equal(t, want, state.String())
	}
}
