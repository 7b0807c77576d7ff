package client

import (
	"context"
	"time"

	timer "github.com/singchia/go-timer/v2"
)

// KeepaliveSend sends one keepalive message and returns the number of seconds
// until the server wants the next one.
func (s *Session) KeepaliveSend(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return await(ctx, s, s.raw.KeepaliveSend)
}

// StartKeepalive schedules a background keepalive every interval. The send
// queues behind other bridged operations like any caller, so it cannot
// interleave with an in-flight operation; a session busy with a long transfer
// simply delays the keepalive.
//
// Fails with ErrKeepaliveRunning if a schedule is already active.
func (s *Session) StartKeepalive(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.kaTick != nil {
		return ErrKeepaliveRunning
	}
	if s.tmr == nil {
		s.tmr = timer.NewTimer()
		s.tmrOwned = true
	}
	s.kaTick = s.tmr.Add(interval,
		timer.WithHandler(s.sendKeepalive), timer.WithCyclically())
	s.logger.Debug("keepalive started", "interval", interval)
	return nil
}

// StopKeepalive cancels the background keepalive schedule, if any.
func (s *Session) StopKeepalive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kaTick != nil {
		s.kaTick.Cancel()
		s.kaTick = nil
		s.logger.Debug("keepalive stopped")
	}
}

func (s *Session) sendKeepalive(_ *timer.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.kaTimeout)
	defer cancel()
	if _, err := s.KeepaliveSend(ctx); err != nil {
		s.logger.Warn("keepalive failed", "err", err)
	}
}
