// Package client is the awaitable facade over a non-blocking SSH session.
//
// Every exported operation takes a context.Context and blocks the calling
// goroutine until the underlying call reaches a terminal result. Internally
// the call is driven by a retry loop: the wrapped library's synchronous call
// is invoked inline; on a would-block return the goroutine parks on the
// session's readiness source for whichever socket direction the library
// reports, then retries. Would-block is never surfaced to callers, and
// genuine errors are never retried.
//
// The wrapped session handle is not reentrant, so the bridge admits at most
// one in-flight operation per Session, across all of its channels and
// streams. Concurrent callers queue in FIFO order. Cancelling a context
// abandons the operation between retries, releases the queue slot, and leaves
// the protocol state wherever the library's last synchronous call left it;
// resuming a cancelled handshake or authentication exchange is the wrapped
// library's concern and is not guaranteed.
package client
