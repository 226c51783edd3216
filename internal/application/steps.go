package application

import (
	"context"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/radiolink"
	"github.com/example/pager-receiver/internal/scheduler"
)

// InputFeed delivers buffered user input events to the loop without blocking.
type InputFeed interface {
	Next() (InputEvent, bool)
}

// InputQueue is a channel-backed InputFeed. Producers (key readers, signal
// handlers) only buffer events; the loop drains them.
type InputQueue struct {
	events chan InputEvent
}

// NewInputQueue constructs an empty queue.
func NewInputQueue() *InputQueue {
	return &InputQueue{events: make(chan InputEvent, 16)}
}

// Push buffers one event, dropping it when the queue is full rather than
// blocking the producer.
func (q *InputQueue) Push(ev InputEvent) {
	select {
	case q.events <- ev:
	default:
	}
}

// Next returns the next buffered event without blocking.
func (q *InputQueue) Next() (InputEvent, bool) {
	select {
	case ev := <-q.events:
		return ev, true
	default:
		return 0, false
	}
}

// StatusSnapshot is the read-only view handed to rendering collaborators.
type StatusSnapshot struct {
	Clock           calendar.DateTime
	Position        int
	Total           int
	DisplayOn       bool
	StorageDegraded bool
	ReminderPending bool
}

// Status assembles the current snapshot.
func (s *PagerService) Status() StatusSnapshot {
	position, total := s.Position()
	return StatusSnapshot{
		Clock:           s.ClockSnapshot(),
		Position:        position,
		Total:           total,
		DisplayOn:       s.DisplayOn(),
		StorageDegraded: s.StorageDegraded(),
		ReminderPending: s.ReminderPending(),
	}
}

// Steps builds the loop body in its fixed order: clock catch-up, input
// polling, display power housekeeping, notification step, reminder step,
// periodic status publication, radio poll. onStatus may be nil; when set it
// is invoked at most once per second while the display is on and a time is
// established, matching the clock-bar redraw cadence.
func (s *PagerService) Steps(ctx context.Context, input InputFeed, feed radiolink.Feed, onStatus func(StatusSnapshot)) []scheduler.Step {
	var lastStatus time.Time

	steps := []scheduler.Step{
		func(now time.Time) {
			s.clock.Tick(now)
		},
		func(now time.Time) {
			if input == nil {
				return
			}
			for {
				ev, ok := input.Next()
				if !ok {
					return
				}
				s.HandleInput(ctx, ev)
			}
		},
		func(now time.Time) {
			if s.power != nil {
				s.power.Tick(now)
			}
		},
		func(now time.Time) {
			s.notifier.Tick(now)
		},
		func(now time.Time) {
			s.reminder.Tick(now)
		},
		func(now time.Time) {
			if onStatus == nil || !s.DisplayOn() || !s.clock.Valid() {
				return
			}
			if now.Sub(lastStatus) <= time.Second {
				return
			}
			lastStatus = now
			onStatus(s.Status())
		},
		func(now time.Time) {
			if feed == nil || !feed.Available() {
				return
			}
			if b, ok := feed.Next(); ok {
				s.HandleBroadcast(ctx, b)
			}
		},
	}
	return steps
}
