package identity

import (
	"github.com/edusmart/progress-engine/internal/domain/shared"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", shared.NewDomainError("identity", "hash_password", shared.ErrEmptyValue, "password cannot be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", shared.WrapError("identity", "hash_password", shared.ErrValidation, "bcrypt hashing failed", err)
	}
	return string(bytes), nil
}

// VerifyPassword checks a plaintext password against a stored hash.
// Returns shared.ErrInvalidCredentials on mismatch.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}
