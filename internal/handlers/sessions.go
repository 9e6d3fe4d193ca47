package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/controller"
)

var ErrSessionNotFound = fmt.Errorf("session not found")

type session struct {
	controller *controller.Controller
	lastUsed   time.Time
}

/*
Sessions holds the controllers of the games being played. When full, adding
a session drops the least recently used one. Sessions idle for longer than
the idle timeout are dropped by [Sessions.Expire].
*/
type Sessions struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*session
	max         int
	idleTimeout time.Duration
	now         func() time.Time
}

func NewSessions(max int, idleTimeout time.Duration, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{
		sessions:    make(map[uuid.UUID]*session),
		max:         max,
		idleTimeout: idleTimeout,
		now:         now,
	}
}

func (s *Sessions) Add(c *controller.Controller) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.sessions) >= s.max {
		var (
			oldest   uuid.UUID
			lastUsed time.Time
		)
		for id, sess := range s.sessions {
			if lastUsed.IsZero() || sess.lastUsed.Before(lastUsed) {
				oldest, lastUsed = id, sess.lastUsed
			}
		}
		delete(s.sessions, oldest)
		Log.WithField("session_id", oldest).Debug("evicted session")
	}

	id := uuid.New()
	s.sessions[id] = &session{controller: c, lastUsed: s.now()}
	return id
}

// Get returns the controller of the session and marks it used.
func (s *Sessions) Get(id uuid.UUID) (*controller.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastUsed = s.now()
	return sess.controller, nil
}

func (s *Sessions) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Expire drops idle sessions and returns how many were dropped.
func (s *Sessions) Expire() int {
	if s.idleTimeout <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := s.now().Add(-s.idleTimeout)
	expired := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(deadline) {
			delete(s.sessions, id)
			expired++
		}
	}
	return expired
}

// Run expires idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Expire(); n > 0 {
				Log.WithFields(logrus.Fields{
					"expired":  n,
					"sessions": s.Len(),
				}).Info("expired idle sessions")
			}
		}
	}
}
