package notify

import "time"

const (
	// ReminderInterval is the time between reminder pulses.
	ReminderInterval = 30 * time.Second
	// ReminderPulse is the duration of one LED pulse.
	ReminderPulse = 50 * time.Millisecond
)

// Reminder pulses the indicator periodically while a message is
// unacknowledged. It is independent of the Notifier but subordinate to it at
// the indicator: pulses are suppressed entirely while a notification runs.
type Reminder struct {
	indicator Indicator
	notifier  *Notifier

	pending     bool
	pulseActive bool
	lastPulse   time.Time
	pulseEnd    time.Time
	interval    time.Duration
	pulse       time.Duration
}

// ReminderOption customises Reminder construction.
type ReminderOption func(*Reminder)

// WithReminderInterval overrides the inter-pulse interval.
func WithReminderInterval(interval time.Duration) ReminderOption {
	return func(r *Reminder) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithReminderPulse overrides the pulse duration.
func WithReminderPulse(pulse time.Duration) ReminderOption {
	return func(r *Reminder) {
		if pulse > 0 {
			r.pulse = pulse
		}
	}
}

// NewReminder constructs a Reminder sharing the indicator with notifier.
func NewReminder(indicator Indicator, notifier *Notifier, opts ...ReminderOption) *Reminder {
	r := &Reminder{
		indicator: indicator,
		notifier:  notifier,
		interval:  ReminderInterval,
		pulse:     ReminderPulse,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPending marks an unacknowledged arrival and restarts the pulse timer.
func (r *Reminder) SetPending(now time.Time) {
	r.pending = true
	r.lastPulse = now
}

// Pending reports whether an unacknowledged message is outstanding.
func (r *Reminder) Pending() bool {
	return r.pending
}

// Acknowledge clears the pending flag unconditionally. The indicator is
// forced off unless a notification pattern currently owns it.
func (r *Reminder) Acknowledge() {
	r.pending = false
	r.pulseActive = false
	if r.notifier == nil || !r.notifier.Active() {
		r.indicator.Set(false)
	}
}

// Tick runs one poll step. While pending and the notifier is idle, a pulse
// starts each time the interval elapses and ends when its deadline passes.
// With nothing pending and no active pulse or notification, the indicator is
// guaranteed off.
func (r *Reminder) Tick(now time.Time) {
	if !r.pending {
		if (r.notifier == nil || !r.notifier.Active()) && !r.pulseActive {
			r.indicator.Set(false)
		}
		return
	}

	if r.notifier != nil && r.notifier.Active() {
		return
	}

	if r.pulseActive {
		if !now.Before(r.pulseEnd) {
			r.indicator.Set(false)
			r.pulseActive = false
		}
		return
	}

	if now.Sub(r.lastPulse) >= r.interval {
		r.lastPulse = now
		r.indicator.Set(true)
		r.pulseActive = true
		r.pulseEnd = now.Add(r.pulse)
	}
}
