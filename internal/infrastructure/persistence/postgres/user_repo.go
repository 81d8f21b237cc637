package postgres

import (
	"context"
	"fmt"

	"github.com/edusmart/progress-engine/internal/domain/identity"
	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements identity.UserRepository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, u *identity.User) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID.String(), u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("identity", "create", shared.ErrAlreadyExists, "email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail returns the account for the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.get(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users WHERE email = $1
	`, email)
}

// GetByID returns the account by user ID.
func (r *UserRepository) GetByID(ctx context.Context, id learning.UserID) (*identity.User, error) {
	return r.get(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users WHERE id = $1
	`, id.String())
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*identity.User, error) {
	var (
		u  identity.User
		id string
	)
	err := r.conn.QueryRow(ctx, query, arg).Scan(&id, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ID = learning.UserID(id)
	return &u, nil
}
