package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallel2(t *testing.T) {
	n, s, err := Parallel2(t.Context(),
		func(context.Context) (int, error) { return 7, nil },
		func(context.Context) (string, error) { return "seven", nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "seven", s)
}

func TestParallel2_FailureCancelsSibling(t *testing.T) {
	boom := errors.New("boom")

	n, s, err := Parallel2(t.Context(),
		func(ctx context.Context) (int, error) {
			select {
			case <-ctx.Done():
				return 1, ctx.Err()
			case <-time.After(5 * time.Second):
				return 1, nil
			}
		},
		func(context.Context) (string, error) { return "partial", boom },
	)

	require.ErrorIs(t, err, boom)
	assert.Zero(t, n)
	assert.Empty(t, s)
}

func TestParallel3(t *testing.T) {
	a, b, c, err := Parallel3(t.Context(),
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (string, error) { return "two", nil },
		func(context.Context) ([]int, error) { return []int{3}, nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, "two", b)
	assert.Equal(t, []int{3}, c)

	boom := errors.New("boom")

	a, b, c, err = Parallel3(t.Context(),
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (string, error) { return "two", nil },
		func(context.Context) ([]int, error) { return []int{3}, boom },
	)

	require.ErrorIs(t, err, boom)
	assert.Zero(t, a)
	assert.Empty(t, b)
	assert.Nil(t, c)
}

func TestParallelPartialLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	boom := errors.New("boom")
	fns := make([]func(context.Context) (int, error), 10)

	for i := range fns {
		fns[i] = func(context.Context) (int, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)

			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)

			if i%3 == 0 {
				return i, boom
			}

			return i, nil
		}
	}

	results := ParallelPartialLimit(t.Context(), 3, fns...)

	require.Len(t, results, 10)
	assert.LessOrEqual(t, peak.Load(), int32(3))

	for i, r := range results {
		assert.Equal(t, i, r.Value)
		assert.Equal(t, i%3 == 0, errors.Is(r.Err, boom), "result %d", i)
	}
}

func TestParallelPartialLimit_NonPositiveLimitRunsSequentially(t *testing.T) {
	results := ParallelPartialLimit(t.Context(), 0,
		func(context.Context) (string, error) { return "a", nil },
		func(context.Context) (string, error) { return "b", nil },
	)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Value)
	assert.Equal(t, "b", results[1].Value)
}
