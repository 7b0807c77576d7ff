package ssh2

// Substream identifiers within a channel.
const (
	// StreamStdio is the primary data stream (stdin/stdout).
	StreamStdio = 0
	// StreamStderr is the extended data stream carrying stderr.
	StreamStderr = 1
)

// Channel is a synchronous channel handle multiplexed within a Session.
//
// Like Session, every method is non-blocking and may return [ErrWouldBlock];
// the owning session's BlockDirections reports the direction to wait on,
// because channel traffic is framed through the single session transport.
// A channel is only valid while its session is alive.
type Channel interface {
	// Setenv requests an environment variable for the remote process.
	Setenv(name, value string) error

	// RequestPty requests a pseudo-terminal. modes is the wire-encoded
	// terminal mode list; zero dimensions fall back to server defaults.
	RequestPty(term string, modes []byte, width, height, widthPx, heightPx uint32) error

	// RequestPtySize updates the dimensions of an allocated pty.
	RequestPtySize(width, height, widthPx, heightPx uint32) error

	// Shell starts an interactive shell.
	Shell() error

	// Exec starts a single command.
	Exec(command string) error

	// Subsystem starts a named subsystem.
	Subsystem(name string) error

	// SendSignal delivers a signal (by POSIX name, without "SIG") to the
	// remote process.
	SendSignal(name string) error

	// Read reads from the given substream. At end of the substream it
	// returns (0, io.EOF); data reads return (n, nil).
	Read(streamID int, p []byte) (int, error)

	// Write writes to the given substream, returning the number of bytes
	// the flow-control window accepted. Short writes are not would-block:
	// n may be less than len(p) with a nil error.
	Write(streamID int, p []byte) (int, error)

	// Flush discards the substream's pending receive window. Flushing the
	// send side forces queued data out.
	Flush(streamID int) error

	// SendEOF signals that no more data will be written.
	SendEOF() error

	// WaitEOF waits for the peer's EOF marker.
	WaitEOF() error

	// EOF reports whether the peer has sent EOF. Never blocks.
	EOF() bool

	// Close sends the channel close message.
	Close() error

	// WaitClosed waits for the peer to acknowledge close.
	WaitClosed() error

	// ExitStatus returns the remote exit status. Valid only once the peer
	// acknowledged close. Never blocks.
	ExitStatus() int

	// ExitSignal returns the signal that terminated the remote process,
	// if any. Valid only once the peer acknowledged close. Never blocks.
	ExitSignal() (signal, errmsg string)
}
