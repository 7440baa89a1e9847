// Package id provides UUIDv7 generation for all entities.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is the primary key type of every entity.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error. Tests only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is the zero value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// ShortToken returns the first segment of a random UUIDv4 (8 hex chars).
// Used as the random suffix of payment codes.
func ShortToken() string {
	s := uuid.NewString()
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}
