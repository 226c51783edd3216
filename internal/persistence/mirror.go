// Package persistence mirrors the in-memory inbox to durable storage and
// restores it on boot.
package persistence

import "github.com/example/pager-receiver/internal/inbox"

// Mirror captures the persistence operations needed by the pager service.
//
// Save rewrites the full mirror after every insert; Load replays the mirror
// into the store oldest-first. Implementations degrade to no-ops rather than
// failing the caller when the backing store is unavailable.
type Mirror interface {
	Save(store *inbox.Store) error
	Load(store *inbox.Store) error
	Degraded() bool
}

// NopMirror is a Mirror that persists nothing. Used when the pager runs
// without storage and in tests.
type NopMirror struct{}

// Save implements Mirror.
func (NopMirror) Save(*inbox.Store) error { return nil }

// Load implements Mirror.
func (NopMirror) Load(*inbox.Store) error { return nil }

// Degraded implements Mirror.
func (NopMirror) Degraded() bool { return false }
