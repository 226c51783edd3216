package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/clock"
	"github.com/example/pager-receiver/internal/display"
	"github.com/example/pager-receiver/internal/inbox"
	"github.com/example/pager-receiver/internal/notify"
	"github.com/example/pager-receiver/internal/persistence"
	"github.com/example/pager-receiver/internal/radiolink"
	"github.com/example/pager-receiver/internal/scheduler"
	"github.com/example/pager-receiver/internal/testfixtures"
)

type nullIndicator struct{ on bool }

func (n *nullIndicator) Set(on bool) { n.on = on }

type recordingArchive struct {
	entries []inbox.Message
}

func (r *recordingArchive) AppendMessage(_ context.Context, msg inbox.Message, _ time.Time) error {
	r.entries = append(r.entries, msg)
	return nil
}

type serviceHarness struct {
	service  *PagerService
	store    *inbox.Store
	clock    *clock.Clock
	ticker   *testfixtures.Clock
	led      *nullIndicator
	archive  *recordingArchive
	reminder *notify.Reminder
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ticker := testfixtures.NewClock(time.Time{})

	store := inbox.NewStore(8)
	clk := clock.New(60, clock.WithLogger(logger))
	led := &nullIndicator{}
	notifier := notify.NewNotifier(led, notify.NopEmitter{}, nil)
	reminder := notify.NewReminder(led, notifier)
	power := display.NewPower(15*time.Second, ticker.Now())
	archive := &recordingArchive{}

	book := radiolink.NewAddressBook(map[uint32]radiolink.Entry{
		1234001: {Name: "Fire Dept", ToneProfile: 1},
	})

	service := NewPagerService(store, clk, persistence.NopMirror{}, archive, notifier, reminder, power, book, ticker.NowFunc(), logger)
	return &serviceHarness{
		service:  service,
		store:    store,
		clock:    clk,
		ticker:   ticker,
		led:      led,
		archive:  archive,
		reminder: reminder,
	}
}

func TestHandleBroadcastStoresSubscribedRIC(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	slot := h.service.HandleBroadcast(ctx, radiolink.Broadcast{Address: 1234001, Payload: "structure fire, main st"})
	if slot != 0 {
		t.Fatalf("slot = %d, want 0", slot)
	}

	msg, _, ok := h.service.CurrentMessage()
	if !ok || msg.Label != "Fire Dept" || msg.Body != "structure fire, main st" {
		t.Fatalf("CurrentMessage() = %+v ok %v", msg, ok)
	}
	// No time established yet, so the stored timestamp is invalid.
	if msg.Timestamp.Valid {
		t.Fatalf("timestamp should be invalid before a time broadcast: %+v", msg.Timestamp)
	}

	if pos, total := h.service.Position(); pos != 1 || total != 1 {
		t.Fatalf("Position() = (%d,%d), want (1,1)", pos, total)
	}
	if len(h.archive.entries) != 1 {
		t.Fatalf("archive recorded %d entries, want 1", len(h.archive.entries))
	}
	if !h.service.ReminderPending() {
		t.Fatal("arrival did not set the reminder pending")
	}
}

func TestHandleBroadcastIgnoresUnsubscribedRIC(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	slot := h.service.HandleBroadcast(context.Background(), radiolink.Broadcast{Address: 999, Payload: "not for us"})
	if slot != -1 {
		t.Fatalf("slot = %d, want -1", slot)
	}
	if h.store.Count() != 0 {
		t.Fatalf("store count = %d, want 0", h.store.Count())
	}
	if h.service.ReminderPending() {
		t.Fatal("unsubscribed broadcast set the reminder")
	}
}

func TestTimeBroadcastSetsClockAndStampsLaterMessages(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	utc := calendar.DateTime{Year: 2024, Month: 5, Day: 1, Hour: 9, Valid: true}
	h.service.HandleBroadcast(ctx, testfixtures.TimeBroadcast(utc))

	got := h.service.ClockSnapshot()
	// tz offset 60 localises 09:00 UTC to 10:00.
	if !got.Valid || got.Hour != 10 {
		t.Fatalf("ClockSnapshot() = %+v, want valid 10:00", got)
	}

	h.service.HandleBroadcast(ctx, radiolink.Broadcast{Address: 1234001, Payload: "with time"})
	msg, _, _ := h.service.CurrentMessage()
	if !msg.Timestamp.Valid || msg.Timestamp.Hour != 10 {
		t.Fatalf("message timestamp = %+v, want stamped 10:00", msg.Timestamp)
	}
}

func TestHandleInputNavigatesAndAcknowledges(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	h.service.HandleBroadcast(ctx, radiolink.Broadcast{Address: 1234001, Payload: "first"})
	h.service.HandleBroadcast(ctx, radiolink.Broadcast{Address: 1234001, Payload: "second"})

	if !h.service.ReminderPending() {
		t.Fatal("expected pending reminder")
	}

	h.service.HandleInput(ctx, InputPrevious)
	if h.service.ReminderPending() {
		t.Fatal("input did not acknowledge the reminder")
	}
	msg, _, _ := h.service.CurrentMessage()
	if msg.Body != "first" {
		t.Fatalf("after Previous current = %q, want %q", msg.Body, "first")
	}

	h.service.HandleInput(ctx, InputNext)
	msg, _, _ = h.service.CurrentMessage()
	if msg.Body != "second" {
		t.Fatalf("after Next current = %q, want %q", msg.Body, "second")
	}

	h.service.HandleInput(ctx, InputOpenInbox)
	msg, _, _ = h.service.CurrentMessage()
	if msg.Body != "second" {
		t.Fatalf("OpenInbox moved the cursor to %q", msg.Body)
	}
}

func TestRestoreReplaysMirror(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	mirror := persistence.NewFileMirror(dir+"/inbox.log", logger)
	saved := inbox.NewStore(8)
	saved.Insert(1234001, "Fire Dept", "old message", testfixtures.ReferenceDateTime())
	if err := mirror.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	h := newServiceHarness(t)
	h.service.mirror = mirror
	h.service.Restore(context.Background())

	msg, _, ok := h.service.CurrentMessage()
	if !ok || msg.Body != "old message" {
		t.Fatalf("restored current = %+v ok %v", msg, ok)
	}
}

func TestStepsRunFullDataFlow(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	input := NewInputQueue()
	feed := &stubFeed{frames: []radiolink.Broadcast{
		testfixtures.TimeBroadcast(calendar.DateTime{Year: 2024, Month: 5, Day: 1, Hour: 9, Valid: true}),
		{Address: 1234001, Payload: "alert"},
	}}

	var statuses []StatusSnapshot
	steps := h.service.Steps(ctx, input, feed, func(s StatusSnapshot) { statuses = append(statuses, s) })
	loop := scheduler.New(steps)

	now := h.ticker.Now()
	loop.RunOnce(now)                      // consumes the time broadcast
	loop.RunOnce(now.Add(time.Second))     // consumes the page
	loop.RunOnce(now.Add(3 * time.Second)) // clock catch-up + status publish

	if h.store.Count() != 1 {
		t.Fatalf("store count = %d, want 1", h.store.Count())
	}
	snapshot := h.service.ClockSnapshot()
	if !snapshot.Valid {
		t.Fatal("clock was not set through the loop")
	}
	if len(statuses) == 0 {
		t.Fatal("status listener was never invoked")
	}
	last := statuses[len(statuses)-1]
	if last.Total != 1 || last.Position != 1 {
		t.Fatalf("status = %+v, want position 1/1", last)
	}

	// Input drains through the loop and acknowledges.
	input.Push(InputOpenInbox)
	loop.RunOnce(now.Add(4 * time.Second))
	if h.service.ReminderPending() {
		t.Fatal("queued input was not applied by the loop")
	}
}

type stubFeed struct {
	frames []radiolink.Broadcast
}

func (f *stubFeed) Available() bool {
	return len(f.frames) > 0
}

func (f *stubFeed) Next() (radiolink.Broadcast, bool) {
	if len(f.frames) == 0 {
		return radiolink.Broadcast{}, false
	}
	b := f.frames[0]
	f.frames = f.frames[1:]
	return b, true
}

func TestInputQueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	q := NewInputQueue()
	for i := 0; i < 100; i++ {
		q.Push(InputNext)
	}
	drained := 0
	for {
		if _, ok := q.Next(); !ok {
			break
		}
		drained++
	}
	if drained == 0 || drained > 16 {
		t.Fatalf("drained %d events, want 1..16", drained)
	}
}
