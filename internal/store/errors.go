package store

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for unique constraint violations.
	ErrConflict = errors.New("conflict")
)
