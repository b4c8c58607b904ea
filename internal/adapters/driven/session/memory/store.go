// Package memory provides an in-memory session store with sliding
// window trimming and sliding TTL expiry. It is the embedded default;
// the redis adapter carries the same semantics across restarts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultMaxMessages = 50
	DefaultTTL         = time.Hour
	sweepInterval      = time.Minute
)

type entry struct {
	session   domain.Session
	expiresAt time.Time
}

// Store keeps sessions in a mutex-guarded map. Every append refreshes
// the expiry to the full TTL; a background sweeper drops expired
// entries so the map does not grow without bound.
type Store struct {
	maxMessages int
	ttl         time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	now     func() time.Time
	stopCh  chan struct{}
	stopped sync.Once
}

// Option configures the store.
type Option func(*Store)

// WithMaxMessages caps how many messages a session retains.
func WithMaxMessages(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxMessages = n
		}
	}
}

// WithTTL sets the idle expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// withClock fixes the clock. Test hook.
func withClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store and starts its expiry sweeper.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxMessages: DefaultMaxMessages,
		ttl:         DefaultTTL,
		sessions:    make(map[string]*entry),
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweep()
	return s
}

// Append adds a message, creating the session if absent. The session
// is trimmed to the window and its expiry is pushed out to a full TTL.
func (s *Store) Append(_ context.Context, sessionID string, msg domain.Message) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.sessions[sessionID]
	if !ok || now.After(e.expiresAt) {
		e = &entry{session: domain.Session{ID: sessionID, CreatedAt: now}}
		s.sessions[sessionID] = e
	}

	e.session.Messages = append(e.session.Messages, msg)
	e.session.Trim(s.maxMessages)
	e.session.UpdatedAt = now
	e.expiresAt = now.Add(s.ttl)

	cp := e.session
	cp.Messages = append([]domain.Message(nil), e.session.Messages...)
	return &cp, nil
}

// History returns the session's messages in order. An absent or
// expired session yields an empty history, not an error.
func (s *Store) History(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok || s.now().After(e.expiresAt) {
		return nil, nil
	}
	return append([]domain.Message(nil), e.session.Messages...), nil
}

// Reset deletes the session. Resetting an absent session is a no-op.
func (s *Store) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close stops the sweeper.
func (s *Store) Close() error {
	s.stopped.Do(func() { close(s.stopCh) })
	return nil
}

func (s *Store) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for id, e := range s.sessions {
				if now.After(e.expiresAt) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
