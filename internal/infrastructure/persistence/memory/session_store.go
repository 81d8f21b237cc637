// Package memory contains in-process stores used when Redis is disabled.
// They are suitable for development and single-instance deployments only:
// state does not survive a restart and is not shared between instances.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/identity"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// janitorInterval is how often expired sessions are swept out.
const janitorInterval = 5 * time.Minute

// SessionStore is an in-memory identity.SessionStore.
// Expired sessions are rejected on read and swept by a background janitor.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*identity.Session

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSessionStore creates the store and starts the expiry janitor.
func NewSessionStore() *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*identity.Session),
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Put stores a session until its ExpiresAt.
func (s *SessionStore) Put(_ context.Context, sess *identity.Session) error {
	if sess == nil || sess.Token == "" {
		return shared.NewDomainError("memory", "put_session", shared.ErrInvalidInput, "session token cannot be empty")
	}

	cp := *sess
	s.mu.Lock()
	s.sessions[sess.Token] = &cp
	s.mu.Unlock()
	return nil
}

// Get resolves a token to a session.
// Returns shared.ErrSessionNotFound for unknown or expired tokens.
func (s *SessionStore) Get(_ context.Context, token string) (*identity.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	if sess.Expired(time.Now().UTC()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, shared.ErrSessionNotFound
	}

	cp := *sess
	return &cp, nil
}

// Delete revokes a session. Deleting an unknown token is not an error.
func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Len returns the number of stored sessions, including not-yet-swept
// expired ones.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now().UTC()
			s.mu.Lock()
			for token, sess := range s.sessions {
				if sess.Expired(now) {
					delete(s.sessions, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
