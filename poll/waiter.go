package poll

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// ErrNotPollable indicates the connection does not expose a raw descriptor,
// so no readiness source can be built over it.
var ErrNotPollable = errors.New("poll: connection does not expose a raw descriptor")

// aLongTimeAgo is a non-zero deadline in the distant past, used to force
// pending raw waits to wake on cancellation.
var aLongTimeAgo = time.Unix(1, 0)

// Waiter is the readiness source the retry driver registers with: it parks
// the caller until the socket can make progress in the given direction, or
// until ctx is done. DirNone is treated as DirBoth.
type Waiter interface {
	Wait(ctx context.Context, dir ssh2.BlockDirections) error
}

// Socket is a Waiter over a stream connection's raw descriptor. Waits are
// parked on the runtime's network poller via the connection's
// [syscall.RawConn], so a suspended bridge operation costs no busy loop and
// no dedicated thread.
//
// A Socket supports at most one Wait at a time in each direction; the
// bridge's per-session serialization guarantees this.
type Socket struct {
	conn net.Conn
	rc   syscall.RawConn
}

// NewSocket builds a readiness source over conn. It fails with
// [ErrNotPollable] if the connection cannot surface its descriptor.
func NewSocket(conn net.Conn) (*Socket, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, ErrNotPollable
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("poll: raw control: %w", err)
	}
	return &Socket{conn: conn, rc: rc}, nil
}

// SetNonblock forces the descriptor into non-blocking mode so the wrapped
// library's own reads and writes return would-block instead of stalling the
// goroutine.
func (s *Socket) SetNonblock() error {
	var serr error
	if err := s.rc.Control(func(fd uintptr) {
		serr = unix.SetNonblock(int(fd), true)
	}); err != nil {
		return fmt.Errorf("poll: raw control: %w", err)
	}
	if serr != nil {
		return fmt.Errorf("poll: set non-blocking mode: %w", serr)
	}
	return nil
}

// ready reports whether the descriptor currently satisfies events. The
// runtime poller is edge-triggered, so a readiness edge that predates a park
// is never redelivered; this level-triggered probe runs before every park so
// an already-ready socket resolves immediately.
func (s *Socket) ready(events int16) (bool, error) {
	var isReady bool
	var perr error
	if err := s.rc.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		for {
			n, err := unix.Poll(fds, 0)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				perr = err
				return
			}
			isReady = n > 0
			return
		}
	}); err != nil {
		return false, fmt.Errorf("poll: raw control: %w", err)
	}
	if perr != nil {
		return false, fmt.Errorf("poll: probe readiness: %w", perr)
	}
	return isReady, nil
}

// Wait implements Waiter.
func (s *Socket) Wait(ctx context.Context, dir ssh2.BlockDirections) error {
	switch dir {
	case ssh2.DirInbound:
		return s.waitRead(ctx)
	case ssh2.DirOutbound:
		return s.waitWrite(ctx)
	default:
		return s.waitBoth(ctx)
	}
}

func (s *Socket) waitRead(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isReady, err := s.ready(unix.POLLIN); err != nil {
		return err
	} else if isReady {
		return nil
	}
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(aLongTimeAgo)
	})
	woken := false
	err := s.rc.Read(func(uintptr) bool {
		if woken {
			return true
		}
		woken = true
		return false
	})
	if !stop() {
		// The cancel fired and poisoned the deadline; undo it so the
		// descriptor stays usable for later operations.
		s.conn.SetReadDeadline(time.Time{})
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
	if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("poll: wait readable: %w", err)
	}
	return nil
}

func (s *Socket) waitWrite(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isReady, err := s.ready(unix.POLLOUT); err != nil {
		return err
	} else if isReady {
		return nil
	}
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetWriteDeadline(aLongTimeAgo)
	})
	woken := false
	err := s.rc.Write(func(uintptr) bool {
		if woken {
			return true
		}
		woken = true
		return false
	})
	if !stop() {
		s.conn.SetWriteDeadline(time.Time{})
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
	if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("poll: wait writable: %w", err)
	}
	return nil
}

// waitBoth resolves as soon as either direction is ready. The loser of the
// race is cancelled and reaped before returning so no wait outlives the call.
func (s *Socket) waitBoth(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- s.waitRead(rctx) }()
	go func() { errc <- s.waitWrite(rctx) }()

	first := <-errc
	cancel()
	<-errc

	if err := ctx.Err(); err != nil {
		return err
	}
	if first != nil && !errors.Is(first, context.Canceled) {
		return first
	}
	return nil
}
