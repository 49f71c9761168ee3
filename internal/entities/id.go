package entities

import "github.com/google/uuid"

// NewID returns a fresh identifier for books, quotes and sessions.
func NewID() string {
	return uuid.NewString()
}
