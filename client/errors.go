package client

import "errors"

// Sentinel errors for bridged operations.
var (
	// ErrSessionClosed indicates the session has already been closed.
	ErrSessionClosed = errors.New("client: session is closed")

	// ErrChannelClosed indicates the channel is closing or closed.
	ErrChannelClosed = errors.New("client: channel is closed")

	// ErrInvalidTransition indicates a channel operation was issued out of
	// order for its lifecycle (for example Exec after Shell, or WaitClose
	// before Close).
	ErrInvalidTransition = errors.New("client: operation not valid in current channel state")

	// ErrExitStatusNotReady indicates ExitStatus or ExitSignal was called
	// before WaitClose completed.
	ErrExitStatusNotReady = errors.New("client: exit status not available until WaitClose completes")

	// ErrKeepaliveRunning indicates StartKeepalive was called while a
	// keepalive schedule is already active.
	ErrKeepaliveRunning = errors.New("client: keepalive already running")
)
