package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/singchia/yafsm"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// Channel lifecycle states. Each transition has exactly one operation:
// RequestPty, Shell/Exec/Subsystem, Close, WaitClose. The machine is
// validated explicitly so an out-of-order call fails with
// ErrInvalidTransition instead of reaching the wrapped handle.
const (
	stateOpen    = "open"
	statePty     = "pty_requested"
	stateStarted = "started"
	stateClosing = "closing"
	stateClosed  = "closed"

	evRequestPty = "request_pty"
	evStart      = "start"
	evClose      = "close"
	evWaitClose  = "wait_close"
)

// Channel is the awaitable facade over one channel of a Session.
//
// The channel borrows its session for readiness and serialization purposes
// only: it never outlives the session, and closing the session invalidates
// every channel opened from it.
type Channel struct {
	sess   *Session
	raw    ssh2.Channel
	num    int64
	logger *slog.Logger

	mu        sync.Mutex
	fsm       *yafsm.FSM
	exitReady bool
}

func (s *Session) newChannel(raw ssh2.Channel) *Channel {
	c := &Channel{
		sess: s,
		raw:  raw,
		num:  s.chanSeq.Add(1),
	}
	c.logger = s.logger.With("channel", c.num)
	c.initFSM()
	c.logger.Debug("channel opened")
	return c
}

func (c *Channel) initFSM() {
	c.fsm = yafsm.NewFSM()
	open := c.fsm.AddState(stateOpen)
	pty := c.fsm.AddState(statePty)
	started := c.fsm.AddState(stateStarted)
	closing := c.fsm.AddState(stateClosing)
	closed := c.fsm.AddState(stateClosed)
	c.fsm.SetState(stateOpen)

	c.fsm.AddEvent(evRequestPty, open, pty)
	c.fsm.AddEvent(evStart, open, started)
	c.fsm.AddEvent(evStart, pty, started)
	c.fsm.AddEvent(evClose, open, closing)
	c.fsm.AddEvent(evClose, pty, closing)
	c.fsm.AddEvent(evClose, started, closing)
	c.fsm.AddEvent(evWaitClose, closing, closed)
}

// require fails with ErrInvalidTransition unless the channel is in one of the
// given states.
func (c *Channel) require(op string, states ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fsm.InStates(states...) {
		return nil
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, c.fsm.State())
}

func (c *Channel) inStates(states ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.InStates(states...)
}

func (c *Channel) emit(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fsm.EmitEvent(event)
}

// forceStarted marks a channel that arrives mid-lifecycle, such as an SCP
// transfer channel that needs no pty or exec step.
func (c *Channel) forceStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fsm.SetState(stateStarted)
}

// Num returns the channel's sequence number within its session.
func (c *Channel) Num() int64 {
	return c.num
}

// Setenv requests an environment variable for the remote process. Valid
// before the channel is started.
func (c *Channel) Setenv(ctx context.Context, name, value string) error {
	if err := c.require("Setenv", stateOpen, statePty); err != nil {
		return err
	}
	return awaitUnit(ctx, c.sess, func() error {
		return c.raw.Setenv(name, value)
	})
}

// ptyConfig holds pseudo-terminal request parameters.
type ptyConfig struct {
	modes    []byte
	width    uint32
	height   uint32
	widthPx  uint32
	heightPx uint32
}

// PtyOption configures a RequestPty call.
type PtyOption func(*ptyConfig)

// WithPtyModes sets the wire-encoded terminal mode list.
func WithPtyModes(modes []byte) PtyOption {
	return func(c *ptyConfig) { c.modes = modes }
}

// WithPtySize sets the terminal dimensions in character cells.
func WithPtySize(width, height uint32) PtyOption {
	return func(c *ptyConfig) { c.width, c.height = width, height }
}

// WithPtyPixelSize sets the terminal dimensions in pixels.
func WithPtyPixelSize(widthPx, heightPx uint32) PtyOption {
	return func(c *ptyConfig) { c.widthPx, c.heightPx = widthPx, heightPx }
}

// RequestPty requests a pseudo-terminal on the channel. Defaults to 80x24
// cells with no modes.
func (c *Channel) RequestPty(ctx context.Context, term string, opts ...PtyOption) error {
	if err := c.require("RequestPty", stateOpen); err != nil {
		return err
	}
	cfg := ptyConfig{width: 80, height: 24}
	for _, opt := range opts {
		opt(&cfg)
	}
	err := awaitUnit(ctx, c.sess, func() error {
		return c.raw.RequestPty(term, cfg.modes, cfg.width, cfg.height, cfg.widthPx, cfg.heightPx)
	})
	if err != nil {
		return err
	}
	c.emit(evRequestPty)
	return nil
}

// RequestPtySize updates the dimensions of an allocated pty.
func (c *Channel) RequestPtySize(ctx context.Context, width, height, widthPx, heightPx uint32) error {
	if err := c.require("RequestPtySize", statePty, stateStarted); err != nil {
		return err
	}
	return awaitUnit(ctx, c.sess, func() error {
		return c.raw.RequestPtySize(width, height, widthPx, heightPx)
	})
}

// Shell starts an interactive shell on the channel.
func (c *Channel) Shell(ctx context.Context) error {
	return c.start(ctx, "Shell", c.raw.Shell)
}

// Exec starts a single command on the channel.
func (c *Channel) Exec(ctx context.Context, command string) error {
	return c.start(ctx, "Exec", func() error {
		return c.raw.Exec(command)
	})
}

// Subsystem starts a named subsystem on the channel.
func (c *Channel) Subsystem(ctx context.Context, name string) error {
	return c.start(ctx, "Subsystem", func() error {
		return c.raw.Subsystem(name)
	})
}

func (c *Channel) start(ctx context.Context, op string, call func() error) error {
	if err := c.require(op, stateOpen, statePty); err != nil {
		return err
	}
	if err := awaitUnit(ctx, c.sess, call); err != nil {
		return err
	}
	c.emit(evStart)
	c.logger.Debug("channel started", "op", op)
	return nil
}

// SendSignal delivers a signal (by POSIX name, without "SIG") to the remote
// process.
func (c *Channel) SendSignal(ctx context.Context, name string) error {
	if err := c.require("SendSignal", stateStarted); err != nil {
		return err
	}
	return awaitUnit(ctx, c.sess, func() error {
		return c.raw.SendSignal(name)
	})
}

// SendEOF signals that no more data will be written to the channel.
func (c *Channel) SendEOF(ctx context.Context) error {
	if err := c.require("SendEOF", stateStarted); err != nil {
		return err
	}
	return awaitUnit(ctx, c.sess, c.raw.SendEOF)
}

// WaitEOF waits for the peer's EOF marker.
func (c *Channel) WaitEOF(ctx context.Context) error {
	if err := c.require("WaitEOF", stateStarted); err != nil {
		return err
	}
	return awaitUnit(ctx, c.sess, c.raw.WaitEOF)
}

// EOF reports whether the peer has sent EOF. Never blocks.
func (c *Channel) EOF() bool {
	return c.raw.EOF()
}

// Close sends the channel close message. Closing an already-closing or
// closed channel is a no-op.
func (c *Channel) Close(ctx context.Context) error {
	if c.inStates(stateClosing, stateClosed) {
		return nil
	}
	if err := c.require("Close", stateOpen, statePty, stateStarted); err != nil {
		return err
	}
	if err := awaitUnit(ctx, c.sess, c.raw.Close); err != nil {
		return err
	}
	c.emit(evClose)
	c.logger.Debug("channel closing")
	return nil
}

// WaitClose waits for the peer to acknowledge close. Once it completes the
// exit status and exit signal become available.
func (c *Channel) WaitClose(ctx context.Context) error {
	if c.inStates(stateClosed) {
		return nil
	}
	if err := c.require("WaitClose", stateClosing); err != nil {
		return err
	}
	if err := awaitUnit(ctx, c.sess, c.raw.WaitClosed); err != nil {
		return err
	}
	c.mu.Lock()
	c.fsm.EmitEvent(evWaitClose)
	c.exitReady = true
	c.mu.Unlock()
	c.logger.Debug("channel closed", "exit_status", c.raw.ExitStatus())
	return nil
}

// ExitStatus returns the remote exit status. It is a pure accessor, valid
// only after WaitClose completed; before that it fails with
// ErrExitStatusNotReady.
func (c *Channel) ExitStatus() (int, error) {
	c.mu.Lock()
	ready := c.exitReady
	c.mu.Unlock()
	if !ready {
		return 0, ErrExitStatusNotReady
	}
	return c.raw.ExitStatus(), nil
}

// ExitSignal returns the signal that terminated the remote process, if any.
// Like ExitStatus it is gated on WaitClose.
func (c *Channel) ExitSignal() (signal, errmsg string, err error) {
	c.mu.Lock()
	ready := c.exitReady
	c.mu.Unlock()
	if !ready {
		return "", "", ErrExitStatusNotReady
	}
	signal, errmsg = c.raw.ExitSignal()
	return signal, errmsg, nil
}
