// Package ssh2async bridges a synchronous, non-blocking SSH client library
// into context-driven awaitable operations.
//
// The wrapped library performs every protocol step (key exchange, ciphers,
// authentication, channel framing) itself; this module only converts its
// would-block returns into suspensions on the hosting runtime's I/O readiness
// notifications, without busy-spinning and without dedicating an OS thread to
// the connection.
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  client/        Session, Channel, Stream facade         │
//	│                 (retry driver + exclusivity token)      │
//	├─────────────────────────────────────────────────────────┤
//	│  poll/          Socket readiness source                 │
//	├─────────────────────────────────────────────────────────┤
//	│  ssh2/          Non-blocking SSH library contract       │
//	│                 (external collaborator)                 │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	conn, err := net.Dial("tcp", "server:22")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	raw := libssh2.NewSession(conn) // any binding implementing ssh2.Session
//	sess, err := client.New(conn, raw, client.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	if err := sess.Handshake(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := sess.UserauthPassword(ctx, "user", "secret"); err != nil {
//	    log.Fatal(err)
//	}
//	ch, err := sess.ChannelSession(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ch.Exec(ctx, "uname -a"); err != nil {
//	    log.Fatal(err)
//	}
//	out, _ := io.ReadAll(ch.Stdio().IO(ctx))
//
// Exactly one bridged operation may be in flight per Session at a time; the
// bridge serializes callers in FIFO order, so distinct goroutines may use the
// same Session without external locking, at the cost of queuing behind each
// other.
package ssh2async
