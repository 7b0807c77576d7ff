package client

import (
	"context"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// Listener accepts channels for a remote port forwarding established with
// Session.ChannelForwardListen. It borrows its session like every other
// bridge and shares the session's in-flight slot.
type Listener struct {
	sess *Session
	raw  ssh2.Listener
}

// Accept waits for the server to forward a connection and returns it as a
// started channel ready for stream IO.
func (l *Listener) Accept(ctx context.Context) (*Channel, error) {
	if err := l.sess.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, l.sess, l.raw.Accept)
	if err != nil {
		return nil, err
	}
	c := l.sess.newChannel(raw)
	c.forceStarted()
	return c, nil
}
