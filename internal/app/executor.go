package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

// Stage names one step of an Operation.
type Stage string

// Operation stages, in the order Execute runs them.
const (
	StageValidate Stage = "validate"
	StagePerform  Stage = "perform"
	StageVerify   Stage = "verify"
	StageArchive  Stage = "archive"
	StageRespond  Stage = "respond"
)

// StageError records the stage an Operation stopped at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf reports the stage err was raised in, if it came from Execute.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}

	return "", false
}

// Operation is a write that is checked before anything is stored: the
// input is validated, Perform produces a candidate (parsing, remote calls),
// Verify filters it, and only the verified value reaches Archive. Any nil
// stage is skipped and passes its zero value on.
type Operation[I, P, V, O any] struct {
	Name     string
	Validate func(ctx context.Context, in I) error
	Perform  func(ctx context.Context, in I) (P, error)
	Verify   func(ctx context.Context, in I, performed P) (V, error)
	Archive  func(ctx context.Context, in I, verified V) error
	Respond  func(ctx context.Context, in I, verified V) (O, error)
}

// Execute runs op on in. A failing stage stops the run; its error is
// wrapped in a StageError and nothing after it executes.
func Execute[I, P, V, O any](ctx context.Context, logger *slog.Logger, op Operation[I, P, V, O], in I) (O, error) {
	var zero O

	logger = logging.FromContextOr(ctx, logger).With(slog.String("operation", op.Name))
	start := time.Now()

	if _, err := stage(ctx, logger, StageValidate, op.Validate != nil, func() (struct{}, error) {
		return struct{}{}, op.Validate(ctx, in)
	}); err != nil {
		return zero, err
	}

	performed, err := stage(ctx, logger, StagePerform, op.Perform != nil, func() (P, error) {
		return op.Perform(ctx, in)
	})
	if err != nil {
		return zero, err
	}

	verified, err := stage(ctx, logger, StageVerify, op.Verify != nil, func() (V, error) {
		return op.Verify(ctx, in, performed)
	})
	if err != nil {
		return zero, err
	}

	if _, err := stage(ctx, logger, StageArchive, op.Archive != nil, func() (struct{}, error) {
		return struct{}{}, op.Archive(ctx, in, verified)
	}); err != nil {
		return zero, err
	}

	out, err := stage(ctx, logger, StageRespond, op.Respond != nil, func() (O, error) {
		return op.Respond(ctx, in, verified)
	})
	if err != nil {
		return zero, err
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}

func stage[T any](ctx context.Context, logger *slog.Logger, name Stage, present bool, fn func() (T, error)) (T, error) {
	var zero T
	if !present {
		return zero, nil
	}

	out, err := fn()
	if err != nil {
		level := slog.LevelError
		if name == StageValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "operation stage failed", slog.String("stage", string(name)), slog.Any("error", err))

		return zero, &StageError{Stage: name, Err: err}
	}

	logger.Log(ctx, logging.LevelTrace, "operation stage done", slog.String("stage", string(name)))

	return out, nil
}
