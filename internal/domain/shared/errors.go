// Package shared contains common domain types, errors, and events that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// Authorization errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTimeout          = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learning", "progress", "catalog"
	Op      string // Operation that failed, e.g., "Ingest", "Evaluate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Ingestion errors (input validation; rejected before any state mutation)
var (
	ErrInvalidResourceType = NewDomainError("learning", "Validate", ErrInvalidInput, "unknown resource type")
	ErrInvalidTimestamp    = NewDomainError("learning", "Validate", ErrFutureTimestamp, "completion timestamp too far in the future")
	ErrInvalidDuration     = NewDomainError("learning", "Validate", ErrNegativeValue, "duration must be non-negative")
	ErrEmptyDomain         = NewDomainError("learning", "Validate", ErrEmptyValue, "domain is required")
	ErrEmptyResourceID     = NewDomainError("learning", "Validate", ErrInvalidID, "resource ID is required")
	ErrEmptyUserID         = NewDomainError("learning", "Validate", ErrInvalidID, "user ID is required")
)

// Catalog errors
var (
	ErrCourseNotFound     = NewDomainError("catalog", "Find", ErrNotFound, "course not found")
	ErrModuleNotInCourse  = NewDomainError("catalog", "Find", ErrNotFound, "module does not belong to course")
	ErrEmptyCourse        = NewDomainError("catalog", "Validate", ErrInvalidInput, "course has no modules")
)

// Progress errors
var (
	ErrUserStatsConflict = NewDomainError("progress", "Save", ErrOptimisticLock, "user stats modified concurrently")
)

// User/session errors
var (
	ErrUserNotFound       = NewDomainError("identity", "Find", ErrNotFound, "user not found")
	ErrSessionNotFound    = NewDomainError("identity", "Resolve", ErrUnauthenticated, "session not found or expired")
	ErrInvalidCredentials = NewDomainError("identity", "Login", ErrUnauthenticated, "invalid credentials")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrFutureTimestamp)
}

// IsUnauthenticated checks if the error means the caller has no valid session.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsUnavailable checks if the error is a transient store failure. This is the
// only kind a caller should retry.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
