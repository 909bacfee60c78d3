package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Parallel2 runs two independent reads concurrently. The first failure
// cancels the other and both results are discarded.
//
//	quotes, tags, err := Parallel2(ctx, s.All, s.tags.List)
func Parallel2[T1, T2 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (T1, T2, error) {
	var (
		r1 T1
		r2 T2
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		r1, err = fn1(ctx)
		return err
	})

	g.Go(func() (err error) {
		r2, err = fn2(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			zero1 T1
			zero2 T2
		)

		return zero1, zero2, fmt.Errorf("parallel read failed: %w", err)
	}

	return r1, r2, nil
}

// Parallel3 is Parallel2 for three reads.
func Parallel3[T1, T2, T3 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
	fn3 func(context.Context) (T3, error),
) (T1, T2, T3, error) {
	var (
		r1 T1
		r2 T2
		r3 T3
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		r1, err = fn1(ctx)
		return err
	})

	g.Go(func() (err error) {
		r2, err = fn2(ctx)
		return err
	})

	g.Go(func() (err error) {
		r3, err = fn3(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			zero1 T1
			zero2 T2
			zero3 T3
		)

		return zero1, zero2, zero3, fmt.Errorf("parallel read failed: %w", err)
	}

	return r1, r2, r3, nil
}

// PartialResult is one outcome of ParallelPartialLimit.
type PartialResult[T any] struct {
	Value T
	Err   error
}

// ParallelPartialLimit runs fns with at most limit in flight and reports
// every outcome in input order. A failure does not cancel the rest.
func ParallelPartialLimit[T any](
	ctx context.Context,
	limit int,
	fns ...func(context.Context) (T, error),
) []PartialResult[T] {
	results := make([]PartialResult[T], len(fns))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))

	for i, fn := range fns {
		g.Go(func() error {
			v, err := fn(ctx)
			results[i] = PartialResult[T]{Value: v, Err: err}

			return nil
		})
	}

	_ = g.Wait()

	return results
}
