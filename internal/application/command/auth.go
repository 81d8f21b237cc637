package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edusmart/progress-engine/internal/domain/identity"
	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH COMMANDS
// Session issuance for the API: login verifies credentials and stores an
// opaque bearer token with a TTL; register creates the account.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 24 * time.Hour

// LoginCommand contains login credentials.
type LoginCommand struct {
	Email    string
	Password string
}

// Validate validates the command.
func (c LoginCommand) Validate() error {
	if c.Email == "" || c.Password == "" {
		return shared.NewDomainError("identity", "login", shared.ErrEmptyValue, "email and password are required")
	}
	return nil
}

// LoginResult contains the issued session.
type LoginResult struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// LoginHandler handles the LoginCommand.
type LoginHandler struct {
	users      identity.UserRepository
	sessions   identity.SessionStore
	sessionTTL time.Duration
	log        *logger.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(users identity.UserRepository, sessions identity.SessionStore, sessionTTL time.Duration, log *logger.Logger) *LoginHandler {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &LoginHandler{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		log:        log.With(logger.Component("auth")),
	}
}

// Handle executes the login command.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	user, err := h.users.GetByEmail(ctx, cmd.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			// Unknown email and wrong password are indistinguishable to the caller.
			return nil, shared.ErrInvalidCredentials
		}
		return nil, shared.WrapError("identity", "login", shared.ErrStoreUnavailable, "load user", err)
	}

	if err := identity.VerifyPassword(user.PasswordHash, cmd.Password); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &identity.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(h.sessionTTL),
	}
	if err := h.sessions.Put(ctx, session); err != nil {
		return nil, shared.WrapError("identity", "login", shared.ErrStoreUnavailable, "store session", err)
	}

	h.log.Info("session issued", logger.UserID(user.ID.String()))

	return &LoginResult{
		Token:     session.Token,
		UserID:    user.ID.String(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// RegisterCommand contains the data to create an account.
type RegisterCommand struct {
	Email       string
	DisplayName string
	Password    string
}

// Validate validates the command.
func (c RegisterCommand) Validate() error {
	if c.Email == "" {
		return shared.NewDomainError("identity", "register", shared.ErrEmptyValue, "email is required")
	}
	if len(c.Password) < 8 {
		return shared.NewDomainError("identity", "register", shared.ErrInvalidInput, "password must be at least 8 characters")
	}
	return nil
}

// RegisterResult contains the created user's ID.
type RegisterResult struct {
	UserID string
}

// RegisterHandler handles the RegisterCommand.
type RegisterHandler struct {
	users identity.UserRepository
	log   *logger.Logger
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(users identity.UserRepository, log *logger.Logger) *RegisterHandler {
	return &RegisterHandler{users: users, log: log.With(logger.Component("auth"))}
}

// Handle executes the register command.
func (h *RegisterHandler) Handle(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hash, err := identity.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	user := &identity.User{
		ID:           learning.UserID(uuid.New().String()),
		Email:        cmd.Email,
		DisplayName:  cmd.DisplayName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := h.users.Create(ctx, user); err != nil {
		return nil, err
	}

	h.log.Info("user registered", logger.UserID(user.ID.String()))

	return &RegisterResult{UserID: user.ID.String()}, nil
}
