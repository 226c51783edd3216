package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrDegraded is returned when the backing store is unavailable and the
	// mirror operates in memory-only mode.
	ErrDegraded = errors.New("persistence: storage unavailable, memory-only mode")
)
