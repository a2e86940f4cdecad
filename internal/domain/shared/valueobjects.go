// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a user of the study app (UUID format).
type UserID string

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a new UserID with validation.
// The value is normalized to the canonical lowercase form.
func NewUserID(id string) (UserID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", WrapError("user", "NewUserID", ErrInvalidID, "invalid user ID format", err)
	}
	return UserID(parsed.String()), nil
}

// ResourceID identifies an uploaded study resource (UUID format).
type ResourceID string

// String returns the string representation.
func (r ResourceID) String() string {
	return string(r)
}

// NewResourceID creates a new ResourceID with validation.
func NewResourceID(id string) (ResourceID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", WrapError("resource", "NewResourceID", ErrInvalidID, "invalid resource ID format", err)
	}
	return ResourceID(parsed.String()), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score boundaries for quiz and flashcard results (percent).
const (
	MinScore = 0
	MaxScore = 100
)

// NewScore validates a percent score and returns a pointer suitable for
// optional record fields.
func NewScore(value int) (*int, error) {
	if value < MinScore || value > MaxScore {
		return nil, Invalidf("progress", "NewScore", ErrValueOutOfRange, "score %d must be between %d and %d", value, MinScore, MaxScore)
	}
	v := value
	return &v, nil
}
