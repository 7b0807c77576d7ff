package client

import (
	"context"
	"errors"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// await drives a single synchronous call of the wrapped library to a terminal
// result while holding the session's exclusivity token.
//
// The loop runs entirely on the calling goroutine: op is invoked inline; on
// success or a genuine error the result is returned as-is, with no retry. On
// a would-block return the goroutine parks on the session's readiness source
// for whichever direction the library reports at that moment, then invokes op
// again. Context cancellation takes effect between invocations; a cancelled
// await never calls back into the library.
func await[T any](ctx context.Context, s *Session, op func() (T, error)) (T, error) {
	var zero T
	if err := s.token.acquire(ctx); err != nil {
		return zero, err
	}
	defer s.token.release()
	return awaitLocked(ctx, s, op)
}

// awaitLocked is await without token acquisition, for composite operations
// that issue several wrapped calls under one token grant.
func awaitLocked[T any](ctx context.Context, s *Session, op func() (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ssh2.ErrWouldBlock) {
			return zero, err
		}
		dir := s.raw.BlockDirections()
		if dir == ssh2.DirNone {
			// The library reported would-block without a pending
			// direction; wait on either so a spurious report cannot
			// wedge the operation.
			dir = ssh2.DirBoth
		}
		s.logger.Debug("operation would block",
			"direction", dir.String(), "attempt", attempt)
		if werr := s.waiter.Wait(ctx, dir); werr != nil {
			return zero, werr
		}
	}
}

// awaitUnit is await for operations without a result value.
func awaitUnit(ctx context.Context, s *Session, op func() error) error {
	_, err := await(ctx, s, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// awaitUnitLocked is awaitLocked for operations without a result value.
func awaitUnitLocked(ctx context.Context, s *Session, op func() error) error {
	_, err := awaitLocked(ctx, s, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
