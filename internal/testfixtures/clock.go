// Package testfixtures provides deterministic collaborators for tests.
package testfixtures

import (
	"sync"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/inbox"
	"github.com/example/pager-receiver/internal/radiolink"
)

// ReferenceTime is the shared test instant: 2024-05-01 10:00:00 UTC.
func ReferenceTime() time.Time {
	return time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
}

// ReferenceDateTime is ReferenceTime expressed as a pager DateTime.
func ReferenceDateTime() calendar.DateTime {
	return calendar.DateTime{Year: 2024, Month: 5, Day: 1, Hour: 10, Valid: true}
}

// Clock provides a controllable monotonic time source for tests.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock initialised to start. When start is the zero
// value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// Message returns a valid inbox message with a distinguishing suffix.
func Message(n int) inbox.Message {
	ts := ReferenceDateTime()
	calendar.AddMinutes(&ts, n)
	return inbox.Message{
		Address:   uint32(1234000 + n),
		Label:     "TEST",
		Body:      "test message",
		Timestamp: ts,
		Valid:     true,
	}
}

// TimeBroadcast returns a well-formed network time broadcast for dt.
func TimeBroadcast(dt calendar.DateTime) radiolink.Broadcast {
	return radiolink.Broadcast{
		Address: 216,
		Payload: "YYYYMMDDHHMMSS" + dt.Compact()[2:],
	}
}
