// Package scheduler runs the pager's cooperative main loop: a fixed ordered
// list of poll steps, each invoked to completion once per iteration with the
// current monotonic time. No step may block; waiting is always expressed as
// "not ready yet" against the time passed in.
package scheduler

import (
	"context"
	"time"
)

// Step is one poll function. It must return promptly; suspension is never
// implicit.
type Step func(now time.Time)

// Loop invokes its steps in registration order, once per iteration.
type Loop struct {
	steps []Step
	now   func() time.Time
}

// Option customises Loop construction.
type Option func(*Loop)

// WithNow overrides the time source. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// New constructs a Loop over the given steps. Order is significant and fixed
// at wiring time.
func New(steps []Step, opts ...Option) *Loop {
	l := &Loop{steps: steps, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RunOnce executes one full iteration: every step, in order, with the same
// time reading.
func (l *Loop) RunOnce(now time.Time) {
	for _, step := range l.steps {
		step(now)
	}
}

// Run drives RunOnce at the given poll interval until ctx is cancelled.
// Steps do their own elapsed-time bookkeeping, so the interval only bounds
// reaction latency, not correctness.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.RunOnce(l.now())
		}
	}
}
