package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup. For contacts
	// this also covers "exists but owned by someone else".
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate")
)
