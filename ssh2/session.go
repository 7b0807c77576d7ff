package ssh2

// DisconnectCode is the reason code sent with a protocol disconnect message.
type DisconnectCode int

const (
	DisconnectByApplication DisconnectCode = iota
	DisconnectProtocolError
	DisconnectAuthCancelledByUser
	DisconnectConnectionLost
)

// Prompt is a single keyboard-interactive authentication prompt.
type Prompt struct {
	// Text is the prompt text to display.
	Text string

	// Echo reports whether the response may be echoed.
	Echo bool
}

// KeyboardInteractive answers a round of keyboard-interactive prompts.
// It is invoked by the wrapped library during authentication and must return
// one response per prompt.
type KeyboardInteractive func(name, instruction string, prompts []Prompt) ([]string, error)

// PublicKey is an identity held by a key agent.
type PublicKey struct {
	// Blob is the wire-format public key.
	Blob []byte

	// Comment is the agent's comment for the key.
	Comment string
}

// FileStat describes a file being transferred over SCP.
type FileStat struct {
	Size  int64
	Mode  uint32
	Mtime int64
	Atime int64
}

// Session is the synchronous session handle of the wrapped SSH library.
//
// All methods execute inline on the calling goroutine and never block on the
// socket: if no progress is possible they return an error matching
// [ErrWouldBlock] (via errors.Is), and BlockDirections reports which socket
// direction the session needs before a retry can succeed. Any other error is
// terminal for that call.
//
// The handle is not safe for concurrent use; the bridge serializes access.
type Session interface {
	// SetBlocking switches the session between blocking and non-blocking
	// mode. The bridge forces non-blocking mode at construction and the
	// flag must not be toggled afterwards.
	SetBlocking(blocking bool)

	// BlockDirections reports the directions the last would-blocked call
	// is waiting on.
	BlockDirections() BlockDirections

	// Handshake drives banner exchange, key exchange and server host key
	// verification.
	Handshake() error

	UserauthPassword(username, password string) error
	UserauthPublicKey(username string, publicKey, privateKey []byte, passphrase string) error
	UserauthKeyboardInteractive(username string, prompt KeyboardInteractive) error

	// AuthMethods returns the comma-separated authentication methods the
	// server accepts for username.
	AuthMethods(username string) (string, error)

	// Authenticated reports whether userauth has completed successfully.
	Authenticated() bool

	// Banner returns the server's identification banner, if any. Valid
	// after Handshake.
	Banner() string

	// HostKey returns the server's host key and its algorithm name. Valid
	// after Handshake.
	HostKey() (key []byte, keyType string, ok bool)

	// OpenChannel opens a channel of the given type within the session.
	OpenChannel(kind string, windowSize, packetSize uint32, message string) (Channel, error)

	// ChannelDirectTCPIP opens a direct-tcpip channel to host:port,
	// reporting srcHost:srcPort as the originator.
	ChannelDirectTCPIP(host string, port uint16, srcHost string, srcPort uint16) (Channel, error)

	// ChannelForwardListen asks the server to listen on host:port and
	// queue up to queueMax inbound connections. It returns the listener
	// and the port actually bound (meaningful when port was 0).
	ChannelForwardListen(host string, port uint16, queueMax int) (Listener, uint16, error)

	// ScpRecv starts an SCP download of the remote path, returning the
	// transfer channel and the remote file's attributes.
	ScpRecv(path string) (Channel, FileStat, error)

	// ScpSend starts an SCP upload to the remote path.
	ScpSend(path string, mode int, size int64) (Channel, error)

	// SFTP starts the SFTP subsystem on a new channel.
	SFTP() (SFTP, error)

	// Agent returns a handle on the local key agent.
	Agent() (Agent, error)

	// KeepaliveSend sends a keepalive message and returns the number of
	// seconds until the next one is due.
	KeepaliveSend() (secondsToNext int, err error)

	// Disconnect sends the protocol disconnect message.
	Disconnect(reason DisconnectCode, description, lang string) error

	// Close releases the session's resources. It does not close the
	// underlying socket.
	Close() error
}

// Listener is a server-side port forward accept queue.
type Listener interface {
	// Accept dequeues an inbound forwarded connection as a channel.
	Accept() (Channel, error)
}

// Agent is a handle on a key agent usable for public key authentication.
type Agent interface {
	Connect() error
	ListIdentities() error
	Identities() ([]PublicKey, error)
	Userauth(username string, identity PublicKey) error
	Disconnect() error
}
