package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/inbox"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "archive.db")
	archive, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() {
		_ = archive.Close()
	})

	if err := archive.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return archive
}

func TestArchiveAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := Entry{
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			Address:    uint32(1000 + i),
			Label:      "TEST",
			Body:       "hello",
			Timestamp:  calendar.DateTime{Year: 2024, Month: 5, Day: 1, Hour: 10, Minute: i, Valid: true},
		}
		if err := archive.Append(ctx, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	count, err := archive.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("Count = %d, want 3", count)
	}

	entries, err := archive.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(entries))
	}
	if entries[0].Address != 1002 {
		t.Fatalf("newest entry address = %d, want 1002", entries[0].Address)
	}
	if entries[0].ID == "" {
		t.Fatal("entry ID was not generated")
	}
	if !entries[0].Timestamp.Valid || entries[0].Timestamp.Minute != 2 {
		t.Fatalf("timestamp round trip failed: %+v", entries[0].Timestamp)
	}
}

func TestArchiveAppendMessageWithoutTimestamp(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	msg := inbox.Message{Address: 42, Label: "RIC", Body: "no time yet", Valid: true}
	if err := archive.AppendMessage(ctx, msg, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	entries, err := archive.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Recent returned %d entries, want 1", len(entries))
	}
	if entries[0].Timestamp.Valid {
		t.Fatalf("invalid pager timestamp should stay invalid, got %+v", entries[0].Timestamp)
	}
}

func TestArchiveSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "archive.db")

	first, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := first.Append(ctx, Entry{Address: 7, Label: "A", Body: "persisted"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	if err := second.Migrate(ctx); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}

	count, err := second.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count after reopen = %d, want 1", count)
	}
}
