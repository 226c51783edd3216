// Package application orchestrates the pager core: it owns the message
// store, the software clock, the persistence mirror, and the feedback state
// machines, and wires them to the radio-link and input collaborators.
//
// Every mutating method is called from the main loop only; there is exactly
// one logical thread of control and no locking.
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/clock"
	"github.com/example/pager-receiver/internal/display"
	"github.com/example/pager-receiver/internal/inbox"
	"github.com/example/pager-receiver/internal/notify"
	"github.com/example/pager-receiver/internal/persistence"
	"github.com/example/pager-receiver/internal/radiolink"
)

// InputEvent is a discrete user input. Every event implies an acknowledgement
// of pending messages.
type InputEvent int

const (
	// InputPrevious navigates to the next older message.
	InputPrevious InputEvent = iota
	// InputNext navigates to the next newer message.
	InputNext
	// InputOpenInbox opens the inbox view on the current message.
	InputOpenInbox
)

// Archiver records accepted messages permanently. Optional; failures must
// never block the loop.
type Archiver interface {
	AppendMessage(ctx context.Context, msg inbox.Message, receivedAt time.Time) error
}

// PagerService is the single owner of all mutable pager state.
type PagerService struct {
	store    *inbox.Store
	clock    *clock.Clock
	mirror   persistence.Mirror
	archive  Archiver
	notifier *notify.Notifier
	reminder *notify.Reminder
	power    *display.Power
	book     *radiolink.AddressBook
	now      func() time.Time
	logger   *slog.Logger
}

// NewPagerService constructs the service. mirror may be a NopMirror and
// archive may be nil; everything else is required.
func NewPagerService(
	store *inbox.Store,
	clk *clock.Clock,
	mirror persistence.Mirror,
	archive Archiver,
	notifier *notify.Notifier,
	reminder *notify.Reminder,
	power *display.Power,
	book *radiolink.AddressBook,
	now func() time.Time,
	logger *slog.Logger,
) *PagerService {
	if mirror == nil {
		mirror = persistence.NopMirror{}
	}
	if now == nil {
		now = time.Now
	}
	return &PagerService{
		store:    store,
		clock:    clk,
		mirror:   mirror,
		archive:  archive,
		notifier: notifier,
		reminder: reminder,
		power:    power,
		book:     book,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *PagerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PagerService", operation, attrs...)
}

// Restore replays the persisted inbox mirror into the store. Called once at
// boot, before the loop starts.
func (s *PagerService) Restore(ctx context.Context) {
	logger := s.loggerWith(ctx, "Restore")

	if err := s.mirror.Load(s.store); err != nil {
		if errors.Is(err, persistence.ErrDegraded) {
			logger.WarnContext(ctx, "storage degraded, starting memory-only")
			return
		}
		logger.ErrorContext(ctx, "failed to restore inbox", "error", err)
		return
	}
	logger.InfoContext(ctx, "inbox restored", "count", s.store.Count())
}

// HandleBroadcast processes one decoded transmission. Time broadcasts update
// the software clock; transmissions addressed to a subscribed RIC are stored,
// mirrored, archived, and kick off the notification and reminder machines.
// The returned slot index is -1 when the broadcast was not stored.
func (s *PagerService) HandleBroadcast(ctx context.Context, b radiolink.Broadcast) int {
	logger := s.loggerWith(ctx, "HandleBroadcast", "address", b.Address)

	if utc, ok := radiolink.ParseTimeBroadcast(b.Address, b.Payload); ok {
		s.clock.SetAuthoritative(utc, s.now())
	}

	entry, ok := s.book.Lookup(b.Address)
	if !ok {
		return -1
	}

	receivedAt := s.now()
	slot := s.store.Insert(b.Address, entry.Name, b.Payload, s.clock.Snapshot())
	logger.InfoContext(ctx, "message stored", "slot", slot, "count", s.store.Count(), "ric_name", entry.Name)

	if err := s.mirror.Save(s.store); err != nil && !errors.Is(err, persistence.ErrDegraded) {
		logger.ErrorContext(ctx, "failed to mirror inbox", "error", err)
	}

	if s.archive != nil {
		msg, _, _ := s.store.Current()
		if err := s.archive.AppendMessage(ctx, msg, receivedAt.UTC()); err != nil {
			logger.ErrorContext(ctx, "failed to archive message", "error", err)
		}
	}

	if s.power != nil {
		s.power.ForceOn(receivedAt)
	}
	s.notifier.Arm(entry.ToneProfile, receivedAt)
	s.reminder.SetPending(receivedAt)

	return slot
}

// HandleInput applies one user input event. Any input acknowledges pending
// messages and counts as display activity.
func (s *PagerService) HandleInput(ctx context.Context, ev InputEvent) {
	s.reminder.Acknowledge()
	if s.power != nil {
		s.power.MarkActivity(s.now())
	}

	switch ev {
	case InputPrevious:
		s.store.AdvanceView(inbox.DirectionOlder)
	case InputNext:
		s.store.AdvanceView(inbox.DirectionNewer)
	case InputOpenInbox:
		// The view stays on the current message; opening the inbox is a
		// rendering concern.
	}
}

// ClockSnapshot returns the current clock reading by value.
func (s *PagerService) ClockSnapshot() calendar.DateTime {
	return s.clock.Snapshot()
}

// CurrentMessage returns the message under the view cursor and its slot.
func (s *PagerService) CurrentMessage() (inbox.Message, int, bool) {
	return s.store.Current()
}

// Position returns the 1-based logical view position and the total count.
func (s *PagerService) Position() (int, int) {
	return s.store.LogicalPosition()
}

// Messages returns all stored messages oldest-first.
func (s *PagerService) Messages() []inbox.Message {
	return s.store.Messages()
}

// DisplayOn reports the display power state.
func (s *PagerService) DisplayOn() bool {
	if s.power == nil {
		return true
	}
	return s.power.On()
}

// StorageDegraded reports whether the mirror is running memory-only.
func (s *PagerService) StorageDegraded() bool {
	return s.mirror.Degraded()
}

// ReminderPending reports whether an unacknowledged message is outstanding.
func (s *PagerService) ReminderPending() bool {
	return s.reminder.Pending()
}

// Shutdown performs the final mirror save before exit.
func (s *PagerService) Shutdown(ctx context.Context) {
	logger := s.loggerWith(ctx, "Shutdown")
	if err := s.mirror.Save(s.store); err != nil && !errors.Is(err, persistence.ErrDegraded) {
		logger.ErrorContext(ctx, "failed to save inbox on shutdown", "error", err)
		return
	}
	logger.InfoContext(ctx, "inbox saved", "count", s.store.Count())
}
