package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a compare-and-set against stored state fails,
	// typically because another process sharing the database got there first
	ErrConflict = errors.New("conflict: registry was modified concurrently")
)
