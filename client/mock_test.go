package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-ssh2async/poll"
	"github.com/smnsjas/go-ssh2async/ssh2"
)

// MockSession is a mock implementation of ssh2.Session
type MockSession struct {
	mu sync.Mutex

	// Expectations
	HandshakeFunc            func() error
	UserauthPasswordFunc     func(username, password string) error
	UserauthPublicKeyFunc    func(username string, publicKey, privateKey []byte, passphrase string) error
	UserauthKeyboardFunc     func(username string, prompt ssh2.KeyboardInteractive) error
	AuthMethodsFunc          func(username string) (string, error)
	AuthenticatedFunc        func() bool
	BannerFunc               func() string
	HostKeyFunc              func() ([]byte, string, bool)
	OpenChannelFunc          func(kind string, windowSize, packetSize uint32, message string) (ssh2.Channel, error)
	ChannelDirectTCPIPFunc   func(host string, port uint16, srcHost string, srcPort uint16) (ssh2.Channel, error)
	ChannelForwardListenFunc func(host string, port uint16, queueMax int) (ssh2.Listener, uint16, error)
	ScpRecvFunc              func(path string) (ssh2.Channel, ssh2.FileStat, error)
	ScpSendFunc              func(path string, mode int, size int64) (ssh2.Channel, error)
	SFTPFunc                 func() (ssh2.SFTP, error)
	AgentFunc                func() (ssh2.Agent, error)
	KeepaliveSendFunc        func() (int, error)
	DisconnectFunc           func(reason ssh2.DisconnectCode, description, lang string) error
	CloseFunc                func() error

	// Directions reported after a would-block return. Defaults to DirInbound.
	Dir ssh2.BlockDirections

	// State
	Blocking    *bool // last SetBlocking argument, nil if never called
	CloseCalled bool
}

func (m *MockSession) SetBlocking(blocking bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blocking = &blocking
}

func (m *MockSession) BlockDirections() ssh2.BlockDirections {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Dir
}

func (m *MockSession) setDir(dir ssh2.BlockDirections) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dir = dir
}

func (m *MockSession) Handshake() error {
	if m.HandshakeFunc != nil {
		return m.HandshakeFunc()
	}
	return nil
}

func (m *MockSession) UserauthPassword(username, password string) error {
	if m.UserauthPasswordFunc != nil {
		return m.UserauthPasswordFunc(username, password)
	}
	return nil
}

func (m *MockSession) UserauthPublicKey(username string, publicKey, privateKey []byte, passphrase string) error {
	if m.UserauthPublicKeyFunc != nil {
		return m.UserauthPublicKeyFunc(username, publicKey, privateKey, passphrase)
	}
	return nil
}

func (m *MockSession) UserauthKeyboardInteractive(username string, prompt ssh2.KeyboardInteractive) error {
	if m.UserauthKeyboardFunc != nil {
		return m.UserauthKeyboardFunc(username, prompt)
	}
	return nil
}

func (m *MockSession) AuthMethods(username string) (string, error) {
	if m.AuthMethodsFunc != nil {
		return m.AuthMethodsFunc(username)
	}
	return "password,publickey", nil
}

func (m *MockSession) Authenticated() bool {
	if m.AuthenticatedFunc != nil {
		return m.AuthenticatedFunc()
	}
	return false
}

func (m *MockSession) Banner() string {
	if m.BannerFunc != nil {
		return m.BannerFunc()
	}
	return "SSH-2.0-mock"
}

func (m *MockSession) HostKey() ([]byte, string, bool) {
	if m.HostKeyFunc != nil {
		return m.HostKeyFunc()
	}
	return []byte("mock-host-key"), "ssh-ed25519", true
}

func (m *MockSession) OpenChannel(kind string, windowSize, packetSize uint32, message string) (ssh2.Channel, error) {
	if m.OpenChannelFunc != nil {
		return m.OpenChannelFunc(kind, windowSize, packetSize, message)
	}
	return &MockChannel{}, nil
}

func (m *MockSession) ChannelDirectTCPIP(host string, port uint16, srcHost string, srcPort uint16) (ssh2.Channel, error) {
	if m.ChannelDirectTCPIPFunc != nil {
		return m.ChannelDirectTCPIPFunc(host, port, srcHost, srcPort)
	}
	return &MockChannel{}, nil
}

func (m *MockSession) ChannelForwardListen(host string, port uint16, queueMax int) (ssh2.Listener, uint16, error) {
	if m.ChannelForwardListenFunc != nil {
		return m.ChannelForwardListenFunc(host, port, queueMax)
	}
	return &MockListener{}, port, nil
}

func (m *MockSession) ScpRecv(path string) (ssh2.Channel, ssh2.FileStat, error) {
	if m.ScpRecvFunc != nil {
		return m.ScpRecvFunc(path)
	}
	return &MockChannel{}, ssh2.FileStat{}, nil
}

func (m *MockSession) ScpSend(path string, mode int, size int64) (ssh2.Channel, error) {
	if m.ScpSendFunc != nil {
		return m.ScpSendFunc(path, mode, size)
	}
	return &MockChannel{}, nil
}

func (m *MockSession) SFTP() (ssh2.SFTP, error) {
	if m.SFTPFunc != nil {
		return m.SFTPFunc()
	}
	return &MockSFTP{}, nil
}

func (m *MockSession) Agent() (ssh2.Agent, error) {
	if m.AgentFunc != nil {
		return m.AgentFunc()
	}
	return &MockAgent{}, nil
}

func (m *MockSession) KeepaliveSend() (int, error) {
	if m.KeepaliveSendFunc != nil {
		return m.KeepaliveSendFunc()
	}
	return 30, nil
}

func (m *MockSession) Disconnect(reason ssh2.DisconnectCode, description, lang string) error {
	if m.DisconnectFunc != nil {
		return m.DisconnectFunc(reason, description, lang)
	}
	return nil
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockChannel is a mock implementation of ssh2.Channel
type MockChannel struct {
	SetenvFunc         func(name, value string) error
	RequestPtyFunc     func(term string, modes []byte, width, height, widthPx, heightPx uint32) error
	RequestPtySizeFunc func(width, height, widthPx, heightPx uint32) error
	ShellFunc          func() error
	ExecFunc           func(command string) error
	SubsystemFunc      func(name string) error
	SendSignalFunc     func(name string) error
	ReadFunc           func(streamID int, p []byte) (int, error)
	WriteFunc          func(streamID int, p []byte) (int, error)
	FlushFunc          func(streamID int) error
	SendEOFFunc        func() error
	WaitEOFFunc        func() error
	EOFFunc            func() bool
	CloseFunc          func() error
	WaitClosedFunc     func() error
	ExitStatusFunc     func() int
	ExitSignalFunc     func() (string, string)
}

func (m *MockChannel) Setenv(name, value string) error {
	if m.SetenvFunc != nil {
		return m.SetenvFunc(name, value)
	}
	return nil
}

func (m *MockChannel) RequestPty(term string, modes []byte, width, height, widthPx, heightPx uint32) error {
	if m.RequestPtyFunc != nil {
		return m.RequestPtyFunc(term, modes, width, height, widthPx, heightPx)
	}
	return nil
}

func (m *MockChannel) RequestPtySize(width, height, widthPx, heightPx uint32) error {
	if m.RequestPtySizeFunc != nil {
		return m.RequestPtySizeFunc(width, height, widthPx, heightPx)
	}
	return nil
}

func (m *MockChannel) Shell() error {
	if m.ShellFunc != nil {
		return m.ShellFunc()
	}
	return nil
}

func (m *MockChannel) Exec(command string) error {
	if m.ExecFunc != nil {
		return m.ExecFunc(command)
	}
	return nil
}

func (m *MockChannel) Subsystem(name string) error {
	if m.SubsystemFunc != nil {
		return m.SubsystemFunc(name)
	}
	return nil
}

func (m *MockChannel) SendSignal(name string) error {
	if m.SendSignalFunc != nil {
		return m.SendSignalFunc(name)
	}
	return nil
}

func (m *MockChannel) Read(streamID int, p []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(streamID, p)
	}
	return 0, io.EOF
}

func (m *MockChannel) Write(streamID int, p []byte) (int, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(streamID, p)
	}
	return len(p), nil
}

func (m *MockChannel) Flush(streamID int) error {
	if m.FlushFunc != nil {
		return m.FlushFunc(streamID)
	}
	return nil
}

func (m *MockChannel) SendEOF() error {
	if m.SendEOFFunc != nil {
		return m.SendEOFFunc()
	}
	return nil
}

func (m *MockChannel) WaitEOF() error {
	if m.WaitEOFFunc != nil {
		return m.WaitEOFFunc()
	}
	return nil
}

func (m *MockChannel) EOF() bool {
	if m.EOFFunc != nil {
		return m.EOFFunc()
	}
	return false
}

func (m *MockChannel) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockChannel) WaitClosed() error {
	if m.WaitClosedFunc != nil {
		return m.WaitClosedFunc()
	}
	return nil
}

func (m *MockChannel) ExitStatus() int {
	if m.ExitStatusFunc != nil {
		return m.ExitStatusFunc()
	}
	return 0
}

func (m *MockChannel) ExitSignal() (string, string) {
	if m.ExitSignalFunc != nil {
		return m.ExitSignalFunc()
	}
	return "", ""
}

// MockListener is a mock implementation of ssh2.Listener
type MockListener struct {
	AcceptFunc func() (ssh2.Channel, error)
}

func (m *MockListener) Accept() (ssh2.Channel, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc()
	}
	return &MockChannel{}, nil
}

// MockAgent is a mock implementation of ssh2.Agent
type MockAgent struct {
	ConnectFunc        func() error
	ListIdentitiesFunc func() error
	IdentitiesFunc     func() ([]ssh2.PublicKey, error)
	UserauthFunc       func(username string, identity ssh2.PublicKey) error
	DisconnectFunc     func() error
}

func (m *MockAgent) Connect() error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return nil
}

func (m *MockAgent) ListIdentities() error {
	if m.ListIdentitiesFunc != nil {
		return m.ListIdentitiesFunc()
	}
	return nil
}

func (m *MockAgent) Identities() ([]ssh2.PublicKey, error) {
	if m.IdentitiesFunc != nil {
		return m.IdentitiesFunc()
	}
	return nil, nil
}

func (m *MockAgent) Userauth(username string, identity ssh2.PublicKey) error {
	if m.UserauthFunc != nil {
		return m.UserauthFunc(username, identity)
	}
	return nil
}

func (m *MockAgent) Disconnect() error {
	if m.DisconnectFunc != nil {
		return m.DisconnectFunc()
	}
	return nil
}

// MockSFTP is a mock implementation of ssh2.SFTP
type MockSFTP struct {
	OpenFileFunc func(path string, flags ssh2.OpenFlag, mode uint32) (ssh2.File, error)
	OpenDirFunc  func(path string) (ssh2.Dir, error)
	MkdirFunc    func(path string, mode uint32) error
	RmdirFunc    func(path string) error
	RemoveFunc   func(path string) error
	RenameFunc   func(oldpath, newpath string) error
	StatFunc     func(path string) (ssh2.FileAttr, error)
	LstatFunc    func(path string) (ssh2.FileAttr, error)
	SymlinkFunc  func(target, link string) error
	ReadLinkFunc func(path string) (string, error)
	RealPathFunc func(path string) (string, error)
	CloseFunc    func() error
}

func (m *MockSFTP) OpenFile(path string, flags ssh2.OpenFlag, mode uint32) (ssh2.File, error) {
	if m.OpenFileFunc != nil {
		return m.OpenFileFunc(path, flags, mode)
	}
	return &MockFile{}, nil
}

func (m *MockSFTP) OpenDir(path string) (ssh2.Dir, error) {
	if m.OpenDirFunc != nil {
		return m.OpenDirFunc(path)
	}
	return &MockDir{}, nil
}

func (m *MockSFTP) Mkdir(path string, mode uint32) error {
	if m.MkdirFunc != nil {
		return m.MkdirFunc(path, mode)
	}
	return nil
}

func (m *MockSFTP) Rmdir(path string) error {
	if m.RmdirFunc != nil {
		return m.RmdirFunc(path)
	}
	return nil
}

func (m *MockSFTP) Remove(path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(path)
	}
	return nil
}

func (m *MockSFTP) Rename(oldpath, newpath string) error {
	if m.RenameFunc != nil {
		return m.RenameFunc(oldpath, newpath)
	}
	return nil
}

func (m *MockSFTP) Stat(path string) (ssh2.FileAttr, error) {
	if m.StatFunc != nil {
		return m.StatFunc(path)
	}
	return ssh2.FileAttr{}, nil
}

func (m *MockSFTP) Lstat(path string) (ssh2.FileAttr, error) {
	if m.LstatFunc != nil {
		return m.LstatFunc(path)
	}
	return ssh2.FileAttr{}, nil
}

func (m *MockSFTP) Symlink(target, link string) error {
	if m.SymlinkFunc != nil {
		return m.SymlinkFunc(target, link)
	}
	return nil
}

func (m *MockSFTP) ReadLink(path string) (string, error) {
	if m.ReadLinkFunc != nil {
		return m.ReadLinkFunc(path)
	}
	return "", nil
}

func (m *MockSFTP) RealPath(path string) (string, error) {
	if m.RealPathFunc != nil {
		return m.RealPathFunc(path)
	}
	return path, nil
}

func (m *MockSFTP) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockFile is a mock implementation of ssh2.File
type MockFile struct {
	ReadFunc  func(p []byte) (int, error)
	WriteFunc func(p []byte) (int, error)
	StatFunc  func() (ssh2.FileAttr, error)
	SyncFunc  func() error
	SeekFunc  func(offset uint64)
	CloseFunc func() error
}

func (m *MockFile) Read(p []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	return 0, io.EOF
}

func (m *MockFile) Write(p []byte) (int, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(p)
	}
	return len(p), nil
}

func (m *MockFile) Stat() (ssh2.FileAttr, error) {
	if m.StatFunc != nil {
		return m.StatFunc()
	}
	return ssh2.FileAttr{}, nil
}

func (m *MockFile) Sync() error {
	if m.SyncFunc != nil {
		return m.SyncFunc()
	}
	return nil
}

func (m *MockFile) Seek(offset uint64) {
	if m.SeekFunc != nil {
		m.SeekFunc(offset)
	}
}

func (m *MockFile) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockDir is a mock implementation of ssh2.Dir
type MockDir struct {
	ReadDirFunc func() (ssh2.DirEntry, error)
	CloseFunc   func() error
}

func (m *MockDir) ReadDir() (ssh2.DirEntry, error) {
	if m.ReadDirFunc != nil {
		return m.ReadDirFunc()
	}
	return ssh2.DirEntry{}, io.EOF
}

func (m *MockDir) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockWaiter records the directions waited on and wakes immediately, so
// would-block retry loops run without a real socket.
type MockWaiter struct {
	mu       sync.Mutex
	waits    []ssh2.BlockDirections
	WaitFunc func(ctx context.Context, dir ssh2.BlockDirections) error
}

var _ poll.Waiter = (*MockWaiter)(nil)

func (w *MockWaiter) Wait(ctx context.Context, dir ssh2.BlockDirections) error {
	w.mu.Lock()
	w.waits = append(w.waits, dir)
	w.mu.Unlock()
	if w.WaitFunc != nil {
		return w.WaitFunc(ctx, dir)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (w *MockWaiter) Waits() []ssh2.BlockDirections {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ssh2.BlockDirections, len(w.waits))
	copy(out, w.waits)
	return out
}

// wouldBlockTimes wraps op so its first n invocations fail with
// ssh2.ErrWouldBlock before op itself runs.
func wouldBlockTimes(n int, op func() error) func() error {
	remaining := n
	return func() error {
		if remaining > 0 {
			remaining--
			return ssh2.ErrWouldBlock
		}
		return op()
	}
}

// newTestSession builds a bridge over a mock handle and waiter. The returned
// cleanup closes the pipe conn; the session itself is closed by the test when
// Close behavior is under test, otherwise by cleanup via Session.Close.
func newTestSession(t *testing.T, raw *MockSession, waiter *MockWaiter) *Session {
	t.Helper()
	if raw.Dir == ssh2.DirNone {
		raw.Dir = ssh2.DirInbound
	}
	conn, peer := net.Pipe()
	t.Cleanup(func() {
		conn.Close()
		peer.Close()
	})
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.DiscardHandler)
	cfg.Waiter = waiter
	s, err := New(conn, raw, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
