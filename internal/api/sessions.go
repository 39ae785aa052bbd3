package api

import (
	"context"
	"log/slog"
	"sync"
)

// sessionSet tracks live websocket sessions. http.Server.Shutdown does not
// wait for hijacked connections, so they are closed and drained here.
type sessionSet struct {
	mu      sync.Mutex
	closing bool
	live    map[*wsView]struct{}
	wg      sync.WaitGroup
}

func newSessionSet() *sessionSet {
	return &sessionSet{live: make(map[*wsView]struct{})}
}

// add registers v. It returns false once shutdown has begun.
func (s *sessionSet) add(v *wsView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.live[v] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *sessionSet) done(v *wsView) {
	s.mu.Lock()
	delete(s.live, v)
	s.mu.Unlock()

	s.wg.Done()
}

// CloseSessions closes every live websocket session and refuses new ones.
// It is meant for http.Server.RegisterOnShutdown.
func (s *Server) CloseSessions() {
	s.sessions.mu.Lock()
	s.sessions.closing = true
	views := make([]*wsView, 0, len(s.sessions.live))
	for v := range s.sessions.live {
		views = append(views, v)
	}
	s.sessions.mu.Unlock()

	slog.Info("closing view sessions", "count", len(views))
	for _, v := range views {
		v.shutdown()
	}
}

// WaitSessions blocks until every session has finished its cleanup, or ctx
// is done.
func (s *Server) WaitSessions(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.sessions.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
