// Package uuid generates and checks record identifiers.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7 string, suitable as a primary key.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// The random source failed; a v4 is still a valid identifier.
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates s and returns it in canonical lower-case form.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid reports whether s is a UUID in the canonical 36-character form.
// Braced, URN and bare-hex forms accepted by Parse are rejected here so path
// and body identifiers have a single spelling.
func IsValid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := googleuuid.Parse(s)
	return err == nil
}
