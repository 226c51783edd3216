package httpapi

import (
	"sync"

	"github.com/example/pager-receiver/internal/application"
	"github.com/example/pager-receiver/internal/inbox"
)

// Snapshot is the full read-only state the API serves. The pager loop owns
// all mutable state, so HTTP handlers never touch it directly; the loop
// publishes copies here instead.
type Snapshot struct {
	Status     application.StatusSnapshot
	Messages   []inbox.Message
	Current    inbox.Message
	HasCurrent bool
}

// Cache holds the most recently published Snapshot. Safe for one writer and
// many readers.
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Update replaces the cached snapshot.
func (c *Cache) Update(snap Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// Get returns the cached snapshot.
func (c *Cache) Get() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
