package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that no session is stored (not logged in)
	ErrSessionNotFound = errors.New("session not found")

	// ErrEntityNotFound indicates that local entity was not found
	ErrEntityNotFound = errors.New("entity not found")

	// ErrPendingNotFound indicates that pending change was not found
	ErrPendingNotFound = errors.New("pending change not found")
)
