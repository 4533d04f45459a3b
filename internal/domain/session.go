package domain

import (
	"context"
	"time"
)

// Session is an authenticated browser session. Created on successful login,
// looked up on every protected request, destroyed on logout or expiry.
type Session struct {
	Token     string
	UserID    string
	UserName  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore is the process-wide mapping from opaque tokens to sessions.
// Create always issues a fresh token, never reusing a caller-supplied one,
// so a pre-login token can never be fixated into an authenticated session.
type SessionStore interface {
	Create(ctx context.Context, userID, userName string) (*Session, error)
	Lookup(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
	SweepExpired(ctx context.Context) (int, error)
}
