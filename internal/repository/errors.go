package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint is violated,
	// typically because a concurrent writer won a race on the same name or
	// result number. Workflows branch on this error to recover exactly once.
	ErrConflict = errors.New("conflict: uniqueness constraint violated")

	// ErrForeignKeyViolation is returned when a referenced entity is missing.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// ReusePolicy selects which existing entity an ensure workflow reuses when a
// scope already contains one.
type ReusePolicy int

const (
	// ReuseFirstCreated reuses the oldest entity in the scope.
	ReuseFirstCreated ReusePolicy = iota
	// ReuseLastUpdated reuses the most recently updated entity in the scope.
	// This is the legacy behavior, kept selectable for compatibility.
	ReuseLastUpdated
)
