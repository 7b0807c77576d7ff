package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	timer "github.com/singchia/go-timer/v2"

	intlog "github.com/smnsjas/go-ssh2async/internal/log"
	"github.com/smnsjas/go-ssh2async/poll"
	"github.com/smnsjas/go-ssh2async/ssh2"
)

// Default channel open parameters, matching the wrapped library's defaults.
const (
	defaultWindowSize = 2 * 1024 * 1024
	defaultPacketSize = 32768
)

// Config holds configuration for a Session.
type Config struct {
	// Logger receives structured logs. Credential-bearing attributes are
	// redacted before they reach the handler. Defaults to slog.Default().
	Logger *slog.Logger

	// Waiter overrides the readiness source. When nil, one is built over
	// the connection's raw descriptor; New fails if the connection cannot
	// provide one.
	Waiter poll.Waiter

	// Timer schedules keepalives started with StartKeepalive. When nil, a
	// session-owned timing wheel is created on first use.
	Timer timer.Timer

	// KeepaliveTimeout bounds each background keepalive send. Defaults to
	// 15 seconds.
	KeepaliveTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeepaliveTimeout: 15 * time.Second,
	}
}

// Session is the awaitable facade over one SSH connection. It owns the
// wrapped session handle and the raw socket the handle was built from, and
// serializes every bridged operation through a single FIFO token.
type Session struct {
	id     uuid.UUID
	raw    ssh2.Session
	conn   net.Conn
	waiter poll.Waiter
	token  *sessionToken
	logger *slog.Logger

	chanSeq atomic.Int64

	mu        sync.Mutex
	closed    bool
	tmr       timer.Timer
	tmrOwned  bool
	kaTick    timer.Tick
	kaTimeout time.Duration
}

// New constructs the bridge over an already-connected stream socket and the
// wrapped library's session handle built from it. The socket is switched to
// non-blocking mode and the handle's non-blocking flag is forced before any
// bridged operation can run; construction fails if the mode cannot be set or
// the connection exposes no raw descriptor to wait on.
//
// The session takes ownership of conn: Close closes it.
func New(conn net.Conn, raw ssh2.Session, cfg Config) (*Session, error) {
	waiter := cfg.Waiter
	if waiter == nil {
		sock, err := poll.NewSocket(conn)
		if err != nil {
			return nil, fmt.Errorf("client: readiness source: %w", err)
		}
		if err := sock.SetNonblock(); err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
		waiter = sock
	}
	raw.SetBlocking(false)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	logger = slog.New(intlog.NewRedactingHandler(logger.Handler())).
		With("session_id", id.String())

	kaTimeout := cfg.KeepaliveTimeout
	if kaTimeout <= 0 {
		kaTimeout = 15 * time.Second
	}

	return &Session{
		id:        id,
		raw:       raw,
		conn:      conn,
		waiter:    waiter,
		token:     newSessionToken(),
		logger:    logger,
		tmr:       cfg.Timer,
		kaTimeout: kaTimeout,
	}, nil
}

// ID returns the session's log-correlation identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// Handshake drives banner exchange, key exchange and host key verification to
// completion.
//
// Calling Handshake twice on the same session is a caller error the wrapped
// library may not detect; the bridge does not guard against it.
func (s *Session) Handshake(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := awaitUnit(ctx, s, s.raw.Handshake); err != nil {
		return err
	}
	s.logger.Info("handshake complete", "banner", s.raw.Banner())
	return nil
}

// UserauthPassword authenticates with a username and password. Rejection is
// reported distinctly from transport failure; see
// [ssh2.IsAuthenticationFailure].
func (s *Session) UserauthPassword(ctx context.Context, username, password string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := awaitUnit(ctx, s, func() error {
		return s.raw.UserauthPassword(username, password)
	})
	s.logAuth("password", username, err)
	return err
}

// UserauthPublicKey authenticates with an in-memory key pair. publicKey may
// be nil when the wrapped library can derive it from the private key.
func (s *Session) UserauthPublicKey(ctx context.Context, username string, publicKey, privateKey []byte, passphrase string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := awaitUnit(ctx, s, func() error {
		return s.raw.UserauthPublicKey(username, publicKey, privateKey, passphrase)
	})
	s.logAuth("publickey", username, err)
	return err
}

// UserauthKeyboardInteractive authenticates via keyboard-interactive prompts.
// The prompt callback runs inline on the calling goroutine and may be invoked
// more than once if the exchange spans several would-block retries.
func (s *Session) UserauthKeyboardInteractive(ctx context.Context, username string, prompt ssh2.KeyboardInteractive) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := awaitUnit(ctx, s, func() error {
		return s.raw.UserauthKeyboardInteractive(username, prompt)
	})
	s.logAuth("keyboard-interactive", username, err)
	return err
}

func (s *Session) logAuth(method, username string, err error) {
	if err != nil {
		s.logger.Warn("authentication failed",
			"method", method, "username", username, "err", err)
		return
	}
	s.logger.Info("authenticated", "method", method, "username", username)
}

// AuthMethods returns the comma-separated authentication methods the server
// accepts for username.
func (s *Session) AuthMethods(ctx context.Context, username string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return await(ctx, s, func() (string, error) {
		return s.raw.AuthMethods(username)
	})
}

// Authenticated reports whether userauth has completed. Never blocks.
func (s *Session) Authenticated() bool {
	return s.raw.Authenticated()
}

// Banner returns the server's identification banner. Valid after Handshake.
func (s *Session) Banner() string {
	return s.raw.Banner()
}

// HostKey returns the server's host key and algorithm name. Valid after
// Handshake.
func (s *Session) HostKey() (key []byte, keyType string, ok bool) {
	return s.raw.HostKey()
}

// ChannelSession opens a new session channel. The session must be
// authenticated; refusal by the server or the wrapped library is surfaced
// verbatim (see [ssh2.IsChannelFailure]).
func (s *Session) ChannelSession(ctx context.Context) (*Channel, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, s, func() (ssh2.Channel, error) {
		return s.raw.OpenChannel("session", defaultWindowSize, defaultPacketSize, "")
	})
	if err != nil {
		return nil, err
	}
	return s.newChannel(raw), nil
}

// ChannelDirectTCPIP opens a direct-tcpip channel to host:port via the
// server, reporting src as the originator when non-empty.
func (s *Session) ChannelDirectTCPIP(ctx context.Context, host string, port uint16, srcHost string, srcPort uint16) (*Channel, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, s, func() (ssh2.Channel, error) {
		return s.raw.ChannelDirectTCPIP(host, port, srcHost, srcPort)
	})
	if err != nil {
		return nil, err
	}
	return s.newChannel(raw), nil
}

// ChannelForwardListen asks the server to listen on host:port for reverse
// forwarding. It returns the accept queue and the port actually bound.
func (s *Session) ChannelForwardListen(ctx context.Context, host string, port uint16, queueMax int) (*Listener, uint16, error) {
	if err := s.checkOpen(); err != nil {
		return nil, 0, err
	}
	type listenResult struct {
		l    ssh2.Listener
		port uint16
	}
	res, err := await(ctx, s, func() (listenResult, error) {
		l, boundPort, err := s.raw.ChannelForwardListen(host, port, queueMax)
		return listenResult{l: l, port: boundPort}, err
	})
	if err != nil {
		return nil, 0, err
	}
	s.logger.Info("forward listener bound", "host", host, "port", res.port)
	return &Listener{sess: s, raw: res.l}, res.port, nil
}

// ScpRecv starts an SCP download of the remote path. The returned channel
// carries the file body on its primary stream; stat describes the remote
// file.
func (s *Session) ScpRecv(ctx context.Context, path string) (*Channel, ssh2.FileStat, error) {
	if err := s.checkOpen(); err != nil {
		return nil, ssh2.FileStat{}, err
	}
	type scpResult struct {
		ch   ssh2.Channel
		stat ssh2.FileStat
	}
	res, err := await(ctx, s, func() (scpResult, error) {
		ch, stat, err := s.raw.ScpRecv(path)
		return scpResult{ch: ch, stat: stat}, err
	})
	if err != nil {
		return nil, ssh2.FileStat{}, err
	}
	// SCP channels arrive already started; no pty or exec step follows.
	c := s.newChannel(res.ch)
	c.forceStarted()
	return c, res.stat, nil
}

// ScpSend starts an SCP upload to the remote path. Write the file body to
// the returned channel's primary stream, then CloseWrite it.
func (s *Session) ScpSend(ctx context.Context, path string, mode int, size int64) (*Channel, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, s, func() (ssh2.Channel, error) {
		return s.raw.ScpSend(path, mode, size)
	})
	if err != nil {
		return nil, err
	}
	c := s.newChannel(raw)
	c.forceStarted()
	return c, nil
}

// SFTP starts the SFTP subsystem on a new channel.
func (s *Session) SFTP(ctx context.Context) (*SFTP, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, s, func() (ssh2.SFTP, error) {
		return s.raw.SFTP()
	})
	if err != nil {
		return nil, err
	}
	return &SFTP{sess: s, raw: raw}, nil
}

// Agent returns a bridge over the local key agent.
func (s *Session) Agent(ctx context.Context) (*Agent, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, s, func() (ssh2.Agent, error) {
		return s.raw.Agent()
	})
	if err != nil {
		return nil, err
	}
	return &Agent{sess: s, raw: raw}, nil
}

// Disconnect sends the protocol disconnect message. The session should be
// closed afterwards.
func (s *Session) Disconnect(ctx context.Context, reason ssh2.DisconnectCode, description, lang string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, s, func() error {
		return s.raw.Disconnect(reason, description, lang)
	})
}

// Close stops keepalives, closes the socket and releases the wrapped handle.
// Closing the socket first wakes any operation parked on readiness so it can
// fail and drain; the handle itself is only released once the session token
// is held, so Close never runs concurrently with an in-flight call into the
// non-reentrant handle. Channels of this session become unusable. Close is
// idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.kaTick != nil {
		s.kaTick.Cancel()
		s.kaTick = nil
	}
	if s.tmrOwned {
		s.tmr.Close()
		s.tmr = nil
		s.tmrOwned = false
	}
	s.mu.Unlock()

	connErr := s.conn.Close()

	if err := s.token.acquire(context.Background()); err == nil {
		defer s.token.release()
	}
	rawErr := s.raw.Close()

	s.logger.Info("session closed")
	if rawErr != nil {
		return fmt.Errorf("client: close session: %w", rawErr)
	}
	if connErr != nil {
		return fmt.Errorf("client: close socket: %w", connErr)
	}
	return nil
}
