package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrEntityNotFound indicates that entity does not exist or belongs
	// to another school. Cross-tenant access is deliberately
	// indistinguishable from a missing row.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityExists indicates a CREATE for an id that is already taken
	ErrEntityExists = errors.New("entity already exists")

	// ErrVersionConflict indicates that the entity exists but its current
	// version does not match the expected version of the caller
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnknownEntityType indicates an entity type tag with no registered table
	ErrUnknownEntityType = errors.New("unknown entity type")
)
