package redis

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
)

func setupTestStore(t *testing.T) *SessionStore {
	t.Helper()
	client := setupTestClient(t)
	return NewSessionStore(client, time.Hour, clockwork.NewRealClock())
}

func TestCreateAndLookup(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	got, err := store.Lookup(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, sess.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())
}

func TestLookup_UnknownToken(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Lookup(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCreate_RotatesTokenPerLogin(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "user-1", "alice")
	require.NoError(t, err)
	second, err := store.Create(ctx, "user-1", "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

func TestDestroy_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1", "alice")
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, sess.Token))
	_, err = store.Lookup(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.NoError(t, store.Destroy(ctx, sess.Token))
}

func TestCreate_SetsRedisTTL(t *testing.T) {
	client := setupTestClient(t)
	store := NewSessionStore(client, time.Hour, clockwork.NewRealClock())
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1", "alice")
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, "session:"+sess.Token).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}
