package domain

import "errors"

var (
	// ErrSessionNotFound covers both unknown and expired tokens. Callers must
	// not be able to tell the two apart.
	ErrSessionNotFound = errors.New("session not found")
)
