// Package identity holds the user accounts and session model used to
// authenticate API requests. Credentials are verified against bcrypt
// hashes; sessions are opaque bearer tokens with a TTL.
package identity

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// User is an EduSmart account allowed to send completion events.
type User struct {
	ID           learning.UserID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Validate checks the account invariants.
func (u *User) Validate() error {
	if !u.ID.IsValid() {
		return shared.ErrEmptyUserID
	}
	if u.Email == "" {
		return shared.NewDomainError("identity", "validate", shared.ErrEmptyValue, "email cannot be empty")
	}
	if u.PasswordHash == "" {
		return shared.NewDomainError("identity", "validate", shared.ErrEmptyValue, "password hash cannot be empty")
	}
	return nil
}

// Session is an authenticated session bound to a user.
type Session struct {
	Token     string
	UserID    learning.UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its TTL.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// UserRepository is the account store.
type UserRepository interface {
	// GetByEmail returns the account for the given email.
	// Returns shared.ErrUserNotFound when there is no such account.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns the account by user ID.
	GetByID(ctx context.Context, id learning.UserID) (*User, error)

	// Create inserts a new account.
	Create(ctx context.Context, u *User) error
}

// SessionStore keeps live sessions with automatic expiry.
type SessionStore interface {
	// Put stores a session until its ExpiresAt.
	Put(ctx context.Context, s *Session) error

	// Get resolves a token to a session.
	// Returns shared.ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete revokes a session.
	Delete(ctx context.Context, token string) error
}
