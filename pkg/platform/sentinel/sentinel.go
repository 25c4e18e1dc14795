// Package sentinel holds the store-level facts services translate into
// domain errors. Stores return them wrapped; callers test with errors.Is.
package sentinel

import "errors"

var (
	// ErrNotFound: no row, key or token matches.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a unique key (email, user id, transaction id) is taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the record exists but cannot take the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: the backing database or cache could not be reached.
	// Callers may retry.
	ErrUnavailable = errors.New("unavailable")
)
