package model

import "github.com/google/uuid"

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}
