// Package apperr holds the sentinel errors shared across layers.
// Callers wrap them with context and match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput marks malformed caller data: a missing or too small
	// move count, an empty links/rows collection, an out-of-range link.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericDomain marks input that would take a square root or
	// logarithm outside its domain.
	ErrNumericDomain = errors.New("numeric domain error")
)
