// Package clock maintains the pager's software clock between authoritative
// network time broadcasts.
package clock

import (
	"log/slog"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
)

// Clock advances a broken-down local timestamp by catch-up ticking against a
// monotonic time source. It stays invalid until the first authoritative
// broadcast arrives and is owned exclusively by the main loop.
type Clock struct {
	current  calendar.DateTime
	lastTick time.Time
	tzOffset int
	unit     time.Duration
	logger   *slog.Logger
}

// Option customises Clock construction.
type Option func(*Clock)

// WithUnit overrides the tick unit. Intended for tests; the production unit
// is one second.
func WithUnit(unit time.Duration) Option {
	return func(c *Clock) {
		if unit > 0 {
			c.unit = unit
		}
	}
}

// WithLogger attaches a logger for authoritative overwrites.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clock) {
		c.logger = logger
	}
}

// New constructs a Clock applying tzOffsetMinutes to every authoritative
// update. The clock reports an invalid snapshot until SetAuthoritative is
// called.
func New(tzOffsetMinutes int, opts ...Option) *Clock {
	c := &Clock{tzOffset: tzOffsetMinutes, unit: time.Second}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// SetAuthoritative overwrites the clock with the supplied UTC timestamp,
// localises it by the configured timezone offset, and resets the tick mark.
// The overwrite is unconditional; no plausibility bounds are applied, so the
// old and new values are logged to make spurious jumps observable.
func (c *Clock) SetAuthoritative(utc calendar.DateTime, now time.Time) {
	if !utc.Valid {
		return
	}

	previous := c.current
	c.current = utc
	calendar.AddMinutes(&c.current, c.tzOffset)
	c.lastTick = now

	c.logger.Info("clock set from time broadcast",
		"previous", previous.Compact(),
		"current", c.current.Compact(),
		"tz_offset_minutes", c.tzOffset,
	)
}

// Tick advances the clock by one second for every full tick unit elapsed
// since the last advance. The loop catches up after scheduling gaps rather
// than losing seconds.
func (c *Clock) Tick(now time.Time) {
	if !c.current.Valid {
		return
	}
	for now.Sub(c.lastTick) >= c.unit {
		c.lastTick = c.lastTick.Add(c.unit)
		calendar.AdvanceSecond(&c.current)
	}
}

// Snapshot returns the current timestamp by value.
func (c *Clock) Snapshot() calendar.DateTime {
	return c.current
}

// Valid reports whether an authoritative time has been established.
func (c *Clock) Valid() bool {
	return c.current.Valid
}
