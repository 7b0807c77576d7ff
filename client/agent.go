package client

import (
	"context"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// Agent bridges the local key agent for public key authentication without
// handling key material directly.
//
// Typical use: Connect, ListIdentities, then try Userauth with each identity
// until one succeeds.
type Agent struct {
	sess *Session
	raw  ssh2.Agent
}

// Connect opens the connection to the local agent.
func (a *Agent) Connect(ctx context.Context) error {
	if err := a.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, a.sess, a.raw.Connect)
}

// ListIdentities asks the agent for its current identity list.
func (a *Agent) ListIdentities(ctx context.Context) error {
	if err := a.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, a.sess, a.raw.ListIdentities)
}

// Identities returns the identities collected by ListIdentities. Never
// blocks.
func (a *Agent) Identities() ([]ssh2.PublicKey, error) {
	return a.raw.Identities()
}

// Userauth attempts public key authentication with an agent identity.
func (a *Agent) Userauth(ctx context.Context, username string, identity ssh2.PublicKey) error {
	if err := a.sess.checkOpen(); err != nil {
		return err
	}
	a.sess.logger.Debug("agent userauth", "username", username, "key_comment", identity.Comment)
	return awaitUnit(ctx, a.sess, func() error {
		return a.raw.Userauth(username, identity)
	})
}

// UserauthAgent authenticates username with the local key agent, trying each
// held identity in order until one is accepted. A transport failure aborts the
// loop; rejections fall through to the next identity. The whole exchange runs
// under one token grant, so no other operation can slip in mid-flow.
func (s *Session) UserauthAgent(ctx context.Context, username string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.token.acquire(ctx); err != nil {
		return err
	}
	defer s.token.release()

	agent, err := awaitLocked(ctx, s, s.raw.Agent)
	if err != nil {
		return err
	}
	if err := awaitUnitLocked(ctx, s, agent.Connect); err != nil {
		return err
	}
	defer func() {
		if err := awaitUnitLocked(ctx, s, agent.Disconnect); err != nil {
			s.logger.Debug("agent disconnect failed", "err", err)
		}
	}()

	if err := awaitUnitLocked(ctx, s, agent.ListIdentities); err != nil {
		return err
	}
	ids, err := agent.Identities()
	if err != nil {
		return err
	}

	lastErr := error(&ssh2.Error{Code: ssh2.CodeAuthenticationFailed, Msg: "agent holds no identities"})
	for _, id := range ids {
		err := awaitUnitLocked(ctx, s, func() error {
			return agent.Userauth(username, id)
		})
		if err == nil {
			s.logAuth("agent", username, nil)
			return nil
		}
		if !ssh2.IsAuthenticationFailure(err) {
			return err
		}
		lastErr = err
	}
	s.logAuth("agent", username, lastErr)
	return lastErr
}

// Disconnect closes the connection to the local agent.
func (a *Agent) Disconnect(ctx context.Context) error {
	if err := a.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, a.sess, a.raw.Disconnect)
}
