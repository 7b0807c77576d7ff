// Package ssh2 defines the contract of the wrapped synchronous SSH client
// library.
//
// The wrapped library owns the SSH wire protocol end to end: key exchange,
// ciphers, MAC, authentication methods, channel framing and flow control.
// This package only pins down the surface the bridge drives: session, channel,
// listener, agent and SFTP handles whose calls never block, returning
// [ErrWouldBlock] when no progress is currently possible, plus
// [Session.BlockDirections] to report which socket direction the blocked call
// is waiting on.
//
// Bindings to a concrete library implement these interfaces; the bridge in
// package client consumes them.
package ssh2
