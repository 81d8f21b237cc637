package redis

import (
	"context"
	"errors"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/identity"
	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Сессии живут только в Redis: TTL ключа совпадает со сроком сессии,
// поэтому протухшие токены исчезают сами, без фоновой чистки.
// ══════════════════════════════════════════════════════════════════════════════

// sessionRecord is the stored JSON shape of a session.
type sessionRecord struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore implements identity.SessionStore on Redis.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

// Put stores the session with a TTL equal to its remaining lifetime.
func (s *SessionStore) Put(ctx context.Context, session *identity.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return shared.NewDomainError("identity", "put_session", shared.ErrInvalidInput, "session already expired")
	}

	record := sessionRecord{
		UserID:    session.UserID.String(),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	if err := s.cache.Set(ctx, SessionKey(session.Token), record, ttl); err != nil {
		return shared.WrapError("identity", "put_session", shared.ErrStoreUnavailable, "store session", err)
	}
	return nil
}

// Get resolves a token. Unknown and expired tokens are indistinguishable:
// both return shared.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, token string) (*identity.Session, error) {
	var record sessionRecord
	err := s.cache.Get(ctx, SessionKey(token), &record)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, shared.WrapError("identity", "get_session", shared.ErrStoreUnavailable, "load session", err)
	}

	session := &identity.Session{
		Token:     token,
		UserID:    learning.UserID(record.UserID),
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}
	if session.Expired(time.Now().UTC()) {
		// TTL boundary race; treat the same as a missing key.
		return nil, shared.ErrSessionNotFound
	}
	return session, nil
}

// Delete revokes a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, SessionKey(token)); err != nil {
		return shared.WrapError("identity", "delete_session", shared.ErrStoreUnavailable, "delete session", err)
	}
	return nil
}
