package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
)

const (
	// Redis hash field names for session keys.
	fieldUserID    = "user_id"
	fieldUserName  = "user_name"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// SessionStore is a Redis-backed domain.SessionStore.
type SessionStore struct {
	rdb   *goredis.Client
	ttl   time.Duration
	clock clockwork.Clock
}

func NewSessionStore(rdb *goredis.Client, ttl time.Duration, clock clockwork.Clock) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl, clock: clock}
}

// Create issues a new session under a freshly generated token. The key
// carries a Redis TTL matching the session expiry.
func (s *SessionStore) Create(ctx context.Context, userID, userName string) (*domain.Session, error) {
	now := s.clock.Now()
	sess := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	sk := sessionKey(sess.Token)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, sk, map[string]any{
		fieldUserID:    sess.UserID,
		fieldUserName:  sess.UserName,
		fieldCreatedAt: strconv.FormatInt(sess.CreatedAt.UnixMilli(), 10),
		fieldExpiresAt: strconv.FormatInt(sess.ExpiresAt.UnixMilli(), 10),
	})
	pipe.Expire(ctx, sk, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sess, nil
}

func (s *SessionStore) Lookup(ctx context.Context, token string) (*domain.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := sessionFromFields(token, fields)
	if err != nil {
		return nil, err
	}

	// Belt and braces: the Redis TTL should have evicted this already.
	if sess.Expired(s.clock.Now()) {
		return nil, domain.ErrSessionNotFound
	}

	return sess, nil
}

func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SweepExpired is a no-op: Redis evicts expired session keys natively.
func (s *SessionStore) SweepExpired(_ context.Context) (int, error) {
	return 0, nil
}

func sessionFromFields(token string, fields map[string]string) (*domain.Session, error) {
	createdMilli, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session created_at: %w", err)
	}
	expiresMilli, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session expires_at: %w", err)
	}

	return &domain.Session{
		Token:     token,
		UserID:    fields[fieldUserID],
		UserName:  fields[fieldUserName],
		CreatedAt: time.UnixMilli(createdMilli),
		ExpiresAt: time.UnixMilli(expiresMilli),
	}, nil
}

func sessionKey(token string) string {
	return "session:" + token
}
