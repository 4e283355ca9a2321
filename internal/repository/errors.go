// Package repository holds storage-level errors shared by the SQLite
// repositories and the domain services that consume them.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint fails
	ErrConflict = errors.New("conflict: unique constraint violated")
)
