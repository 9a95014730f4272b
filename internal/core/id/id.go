// Package id provides UUIDv7 generation for promotions, quotes and archive rows.
// UUIDv7 is time-ordered, so archived quotes sort naturally by creation time.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseAll converts a list of strings to IDs, preserving order.
// The first malformed value aborts the conversion.
func ParseAll(values []string) ([]ID, error) {
	ids := make([]ID, 0, len(values))
	for i, v := range values {
		parsed, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("id[%d] %q: %w", i, v, err)
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
