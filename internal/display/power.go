// Package display tracks the display power-save state. Rendering itself
// belongs to an external collaborator; this package only decides whether the
// panel should be powered, based on user activity and a configured timeout.
package display

import "time"

// Power is the display power-save state machine.
type Power struct {
	on         bool
	lastActive time.Time
	timeout    time.Duration
}

// NewPower constructs the power state with the panel on. A timeout of zero
// means "always on".
func NewPower(timeout time.Duration, now time.Time) *Power {
	return &Power{on: true, lastActive: now, timeout: timeout}
}

// On reports whether the panel is currently powered.
func (p *Power) On() bool {
	return p.on
}

// MarkActivity records user or display activity, waking the panel if it was
// off.
func (p *Power) MarkActivity(now time.Time) {
	p.lastActive = now
	p.on = true
}

// ForceOn wakes the panel without question, e.g. for a new message.
func (p *Power) ForceOn(now time.Time) {
	p.MarkActivity(now)
}

// Tick applies the power-save timeout. With a zero timeout the panel is kept
// on; an already-off panel stays off until the next activity.
func (p *Power) Tick(now time.Time) {
	if p.timeout <= 0 {
		p.on = true
		return
	}
	if !p.on {
		return
	}
	if now.Sub(p.lastActive) > p.timeout {
		p.on = false
	}
}
