package core

import "github.com/google/uuid"

// NewID returns a random identifier used for turns, sessions and archive rows.
func NewID() string { return uuid.NewString() }
