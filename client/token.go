package client

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// sessionToken serializes bridged operations on one session. The wrapped
// handle's state machine is not reentrant, and all channel traffic is framed
// through the single session transport, so operations on different channels
// of the same session must also queue here.
//
// Waiters are granted the token in FIFO order, which fixes the completion
// order of queued operations. Cancelling a waiting context removes it from
// the queue without disturbing the holder.
type sessionToken struct {
	sem *semaphore.Weighted
}

func newSessionToken() *sessionToken {
	return &sessionToken{sem: semaphore.NewWeighted(1)}
}

// acquire blocks until the token is free or ctx is done.
func (t *sessionToken) acquire(ctx context.Context) error {
	return t.sem.Acquire(ctx, 1)
}

// release returns the token. It must only be called after a successful
// acquire.
func (t *sessionToken) release() {
	t.sem.Release(1)
}
