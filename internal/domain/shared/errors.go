// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")

	// Validation errors
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrLocked = errors.New("locked")

	// Dependency errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "badge", "user"
	Op      string // Operation that failed, e.g., "ResolveLevel", "Equip"
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

// Invalidf creates an invalid-argument domain error with a formatted message.
func Invalidf(domain, op string, kind error, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, kind, fmt.Sprintf(format, args...))
}

// ErrUserNotFound is returned when a user has no row in the users table.
var ErrUserNotFound = NewDomainError("user", "Find", ErrNotFound, "user not found")

// Progress domain errors
var (
	ErrInvalidLevelTable = NewDomainError("progress", "NewLevelTable", ErrInvalidInput, "level table must be ascending and start at 0")
	ErrInvalidTiers      = NewDomainError("badge", "NewTierThresholds", ErrInvalidInput, "tier thresholds must be ascending and positive")
	ErrInvalidTimestamp  = NewDomainError("progress", "Streak", ErrInvalidInput, "timestamp must be set")
	ErrEmptyProgress     = NewDomainError("progress", "Record", ErrEmptyValue, "progress update carries no scores")
)

// Badge domain errors
var (
	ErrUnknownBadge = NewDomainError("badge", "Equip", ErrInvalidInput, "unknown badge category")
	ErrBadgeLocked  = NewDomainError("badge", "Equip", ErrLocked, "badge is still locked")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is a state conflict (e.g. a locked badge).
func IsConflict(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsExternalService checks if the error comes from an unavailable dependency.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrTimeout)
}
