// Package poll provides the readiness source the bridge suspends on.
//
// A [Waiter] answers one question: park the calling goroutine until the
// connection's socket is readable, writable, or either, honoring context
// cancellation. [Socket] is the default implementation, built on the
// connection's raw descriptor access so waits ride the runtime's network
// poller instead of spinning or spawning watcher threads.
package poll
