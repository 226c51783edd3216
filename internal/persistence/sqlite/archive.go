// Package sqlite keeps a permanent archive of every accepted page. The inbox
// ring evicts old messages once full; the archive remembers them.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/inbox"
)

// Entry is one archived page.
type Entry struct {
	ID         string
	ReceivedAt time.Time
	Address    uint32
	Label      string
	Body       string
	Timestamp  calendar.DateTime
}

// Archive is an append-only log of received messages backed by SQLite.
type Archive struct {
	db *sql.DB
}

// Open connects to the archive database at dsn.
func Open(dsn string) (*Archive, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// The archive is written from a single loop; one connection avoids
	// SQLITE_BUSY churn with the pure-Go driver.
	db.SetMaxOpenConns(1)
	return &Archive{db: db}, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Migrate creates the archive schema when missing.
func (a *Archive) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			received_at TEXT NOT NULL,
			address     INTEGER NOT NULL,
			label       TEXT NOT NULL,
			body        TEXT NOT NULL,
			timestamp   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_received_at ON messages(received_at);
	`
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate archive: %w", err)
	}
	return nil
}

// Append records one accepted message. The entry ID is generated when empty.
func (a *Archive) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO messages (id, received_at, address, label, body, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := a.db.ExecContext(ctx, query,
		entry.ID,
		entry.ReceivedAt.Format(time.RFC3339),
		int64(entry.Address),
		entry.Label,
		entry.Body,
		entry.Timestamp.Compact(),
	)
	if err != nil {
		return fmt.Errorf("append archive entry: %w", err)
	}
	return nil
}

// AppendMessage archives an inbox message received at receivedAt.
func (a *Archive) AppendMessage(ctx context.Context, msg inbox.Message, receivedAt time.Time) error {
	return a.Append(ctx, Entry{
		ReceivedAt: receivedAt,
		Address:    msg.Address,
		Label:      msg.Label,
		Body:       msg.Body,
		Timestamp:  msg.Timestamp,
	})
}

// Recent returns up to limit entries, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, received_at, address, label, body, timestamp
		FROM messages
		ORDER BY received_at DESC, id DESC
		LIMIT ?
	`
	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			receivedAt string
			address    int64
			timestamp  string
		)
		if err := rows.Scan(&entry.ID, &receivedAt, &address, &entry.Label, &entry.Body, &timestamp); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339, receivedAt); perr == nil {
			entry.ReceivedAt = parsed
		}
		entry.Address = uint32(address)
		if dt, ok := calendar.ParseCompact(timestamp); ok {
			entry.Timestamp = dt
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive: %w", err)
	}
	return entries, nil
}

// Count returns the total number of archived messages.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return count, nil
}
