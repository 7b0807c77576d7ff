package client

import (
	"context"
	"io"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// Stream addresses one substream of a channel. Stdio is stream 0; stderr of
// a session channel is stream 1. Streams share their channel's lifecycle and
// their session's in-flight slot, so concurrent reads and writes on sibling
// streams serialize rather than interleave.
type Stream struct {
	ch *Channel
	id int
}

// Stream returns the substream with the given identifier.
func (c *Channel) Stream(id int) *Stream {
	return &Stream{ch: c, id: id}
}

// Stdio returns the channel's main data stream.
func (c *Channel) Stdio() *Stream {
	return c.Stream(ssh2.StreamStdio)
}

// Stderr returns the channel's stderr stream.
func (c *Channel) Stderr() *Stream {
	return c.Stream(ssh2.StreamStderr)
}

// Read reads from the stream. End of stream is reported as (0, io.EOF) once
// the peer has sent EOF and buffered data is drained. A short read is not an
// error.
func (s *Stream) Read(ctx context.Context, p []byte) (int, error) {
	if s.ch.inStates(stateClosing, stateClosed) {
		return 0, io.EOF
	}
	if err := s.ch.require("Read", stateStarted); err != nil {
		return 0, err
	}
	return await(ctx, s.ch.sess, func() (int, error) {
		return s.ch.raw.Read(s.id, p)
	})
}

// Write writes to the stream. A short write is returned as-is with a nil
// error; callers needing full delivery should loop or wrap the stream with
// IO.
func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	if s.ch.inStates(stateClosing, stateClosed) {
		return 0, ErrChannelClosed
	}
	if err := s.ch.require("Write", stateStarted); err != nil {
		return 0, err
	}
	return await(ctx, s.ch.sess, func() (int, error) {
		return s.ch.raw.Write(s.id, p)
	})
}

// CloseWrite flushes pending data and signals end of the outbound direction,
// like SendEOF on the owning channel. The read side stays usable.
func (s *Stream) CloseWrite(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	return s.ch.SendEOF(ctx)
}

// Flush pushes buffered stream data to the transport.
func (s *Stream) Flush(ctx context.Context) error {
	if err := s.ch.require("Flush", stateStarted); err != nil {
		return err
	}
	return awaitUnit(ctx, s.ch.sess, func() error {
		return s.ch.raw.Flush(s.id)
	})
}

// IO binds the stream to a context and adapts it to io.ReadWriter so it can
// feed io.Copy and friends. Writer semantics follow io.Writer: short writes
// are retried until the buffer is fully delivered or an error occurs.
func (s *Stream) IO(ctx context.Context) io.ReadWriter {
	return &streamIO{ctx: ctx, s: s}
}

type streamIO struct {
	ctx context.Context
	s   *Stream
}

func (r *streamIO) Read(p []byte) (int, error) {
	return r.s.Read(r.ctx, p)
}

func (r *streamIO) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := r.s.Write(r.ctx, p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}
