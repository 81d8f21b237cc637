package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusmart/progress-engine/internal/domain/identity"
	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

func newSession(token string, ttl time.Duration) *identity.Session {
	now := time.Now().UTC()
	return &identity.Session{
		Token:     token,
		UserID:    learning.UserID("user-1"),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSessionStorePutGet(t *testing.T) {
	store := NewSessionStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession("tok-1", time.Hour)))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, learning.UserID("user-1"), got.UserID)
}

func TestSessionStoreUnknownToken(t *testing.T) {
	store := NewSessionStore()
	defer store.Close()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestSessionStoreExpiredToken(t *testing.T) {
	store := NewSessionStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession("tok-old", -time.Minute)))

	_, err := store.Get(ctx, "tok-old")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len(), "expired session should be dropped on read")
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession("tok-2", time.Hour)))
	require.NoError(t, store.Delete(ctx, "tok-2"))

	_, err := store.Get(ctx, "tok-2")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "tok-2"))
}

func TestSessionStoreRejectsEmptyToken(t *testing.T) {
	store := NewSessionStore()
	defer store.Close()

	err := store.Put(context.Background(), newSession("", time.Hour))
	assert.True(t, shared.IsValidation(err))
}

func TestSessionStoreGetReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession("tok-3", time.Hour)))

	first, err := store.Get(ctx, "tok-3")
	require.NoError(t, err)
	first.UserID = learning.UserID("mutated")

	second, err := store.Get(ctx, "tok-3")
	require.NoError(t, err)
	assert.Equal(t, learning.UserID("user-1"), second.UserID)
}
