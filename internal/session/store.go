// Package session provides the in-memory session store.
//
// Sessions live in a mutex-guarded map with TTL expiry and a background
// sweeper. This is the default backend; internal/redis provides the
// Redis-backed alternative for multi-instance deployments.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/metrics"
)

// MemoryStore is a concurrent-safe in-memory domain.SessionStore with TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	clock    clockwork.Clock
}

// NewMemoryStore creates a store issuing sessions valid for ttl.
func NewMemoryStore(ttl time.Duration, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		clock:    clock,
	}
}

// Create issues a new session with a freshly generated opaque token.
// A token is never accepted from the caller, so every login rotates the
// session identifier even for users with an existing session.
func (s *MemoryStore) Create(_ context.Context, userID, userName string) (*domain.Session, error) {
	now := s.clock.Now()
	sess := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	return sess, nil
}

// Lookup returns the session for token. Unknown and expired tokens both
// yield domain.ErrSessionNotFound.
func (s *MemoryStore) Lookup(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || sess.Expired(s.clock.Now()) {
		// Expired entries stay until the sweeper runs; a read lock cannot delete.
		return nil, domain.ErrSessionNotFound
	}

	copied := *sess
	return &copied, nil
}

// Destroy removes the session for token. Removing an absent token is not an error.
func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	return nil
}

// SweepExpired evicts all expired sessions and returns the count evicted.
func (s *MemoryStore) SweepExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for token, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, token)
			evicted++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return evicted, nil
}

// Size returns the current number of entries (including not-yet-swept expired ones).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper launches a background goroutine sweeping expired sessions
// every interval. Returns a stop function.
func (s *MemoryStore) StartSweeper(interval time.Duration) func() {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if n, _ := s.SweepExpired(context.Background()); n > 0 {
					slog.Debug("Swept expired sessions", "count", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
