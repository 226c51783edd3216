package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/example/pager-receiver/internal/calendar"
	"github.com/example/pager-receiver/internal/inbox"
)

// FileMirror persists the inbox as a line-oriented, pipe-delimited text file,
// one message per line, oldest first:
//
//	<address>|<label>|<YYYYMMDDHHMMSS or ->|<body>
//
// Body newlines are flattened to spaces before writing. The format has no
// escaping for the delimiter itself; that is a documented limitation of the
// on-disk schema, kept for backward-compatible loads.
type FileMirror struct {
	path     string
	degraded bool
	logger   *slog.Logger
}

// NewFileMirror prepares a mirror at path. When the path cannot be opened or
// created the mirror starts degraded: Save and Load become logged no-ops and
// the inbox operates memory-only.
func NewFileMirror(path string, logger *slog.Logger) *FileMirror {
	if logger == nil {
		logger = slog.Default()
	}
	m := &FileMirror{path: path, logger: logger}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		m.degraded = true
		m.logger.Error("inbox mirror unavailable, continuing memory-only", "path", path, "error", err)
		return m
	}
	if cerr := f.Close(); cerr != nil {
		m.logger.Warn("failed to close inbox mirror after probe", "path", path, "error", cerr)
	}
	return m
}

// Degraded reports whether the mirror is running memory-only.
func (m *FileMirror) Degraded() bool {
	return m.degraded
}

// Save rewrites the whole mirror from store state. An empty store truncates
// the file. Write failures flip the mirror into degraded mode.
func (m *FileMirror) Save(store *inbox.Store) (err error) {
	if m.degraded {
		return ErrDegraded
	}

	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		m.degraded = true
		m.logger.Error("inbox mirror write failed, switching memory-only", "path", m.path, "error", err)
		return fmt.Errorf("open inbox mirror: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close inbox mirror: %w", cerr)
		}
	}()

	if store.Count() == 0 {
		m.logger.Debug("saved empty inbox mirror", "path", m.path)
		return nil
	}

	w := bufio.NewWriter(f)
	for _, msg := range store.Messages() {
		if _, werr := w.WriteString(EncodeLine(msg) + "\n"); werr != nil {
			m.degraded = true
			m.logger.Error("inbox mirror write failed, switching memory-only", "path", m.path, "error", werr)
			return fmt.Errorf("write inbox mirror: %w", werr)
		}
	}
	if werr := w.Flush(); werr != nil {
		m.degraded = true
		return fmt.Errorf("flush inbox mirror: %w", werr)
	}

	m.logger.Debug("saved inbox mirror", "path", m.path, "count", store.Count())
	return nil
}

// Load resets the store and replays the mirror oldest-first. Malformed lines
// are skipped with a log entry; a malformed address parses to zero. Loading
// stops once the store capacity is reached, keeping the oldest entries of an
// over-capacity file.
func (m *FileMirror) Load(store *inbox.Store) error {
	store.Reset()

	if m.degraded {
		return ErrDegraded
	}

	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Info("no inbox mirror found, starting empty", "path", m.path)
			return nil
		}
		m.degraded = true
		m.logger.Error("inbox mirror read failed, switching memory-only", "path", m.path, "error", err)
		return fmt.Errorf("open inbox mirror: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	restored := 0
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		msg, ok := DecodeLine(line)
		if !ok {
			skipped++
			m.logger.Warn("skipping malformed inbox mirror line", "path", m.path)
			continue
		}

		store.RestoreInsert(msg)
		restored++
		if restored >= store.Capacity() {
			break
		}
	}
	if serr := scanner.Err(); serr != nil {
		m.logger.Error("inbox mirror scan failed", "path", m.path, "error", serr)
		return fmt.Errorf("scan inbox mirror: %w", serr)
	}

	m.logger.Info("restored inbox from mirror", "path", m.path, "restored", restored, "skipped", skipped)
	return nil
}

// EncodeLine renders one message in the mirror's line format.
func EncodeLine(msg inbox.Message) string {
	body := strings.NewReplacer("\n", " ", "\r", " ").Replace(msg.Body)
	return fmt.Sprintf("%d|%s|%s|%s", msg.Address, msg.Label, msg.Timestamp.Compact(), body)
}

// DecodeLine parses one mirror line, splitting on the first three pipes. The
// boolean is false when the line has fewer than three delimiters. Address
// parse failures fall back to zero; the timestamp is parsed only when it is
// not "-" and carries at least 14 characters.
func DecodeLine(line string) (inbox.Message, bool) {
	parts := strings.SplitN(line, "|", 4)
	if len(parts) < 4 {
		return inbox.Message{}, false
	}

	address, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		address = 0
	}

	var ts calendar.DateTime
	if parsed, ok := calendar.ParseCompact(parts[2]); ok {
		ts = parsed
	}

	return inbox.Message{
		Address:   uint32(address),
		Label:     parts[1],
		Body:      parts[3],
		Timestamp: ts,
		Valid:     true,
	}, true
}
