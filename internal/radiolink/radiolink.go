// Package radiolink is the boundary to the radio decoder. The decoder
// delivers (address, payload) pairs; this package buffers them for the main
// loop, matches addresses against the configured RIC book, and extracts the
// network time broadcasts used to set the software clock.
package radiolink

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/example/pager-receiver/internal/calendar"
)

// Broadcast is one decoded POCSAG transmission.
type Broadcast struct {
	Address uint32
	Payload string
}

// Feed exposes decoded broadcasts to the main loop without blocking: the
// loop polls Available each iteration and drains via Next.
type Feed interface {
	Available() bool
	Next() (Broadcast, bool)
}

// Entry describes one subscribed RIC.
type Entry struct {
	Name        string
	ToneProfile int
}

// AddressBook maps subscribed RICs to their display name and ring tone.
type AddressBook struct {
	entries map[uint32]Entry
}

// NewAddressBook builds a book from the given RIC table.
func NewAddressBook(entries map[uint32]Entry) *AddressBook {
	book := &AddressBook{entries: make(map[uint32]Entry, len(entries))}
	for ric, entry := range entries {
		book.entries[ric] = entry
	}
	return book
}

// ParseAddressBook parses the configuration form "ric:name:tone,...", e.g.
// "1234001:Fire Dept:0,1234002:EMS:1".
func ParseAddressBook(spec string) (*AddressBook, error) {
	entries := make(map[uint32]Entry)
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.SplitN(field, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("radiolink: malformed ric entry %q", field)
		}
		ric, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("radiolink: invalid ric in %q: %w", field, err)
		}
		entry := Entry{Name: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			tone, err := strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil || tone < 0 {
				return nil, fmt.Errorf("radiolink: invalid tone in %q", field)
			}
			entry.ToneProfile = tone
		}
		entries[uint32(ric)] = entry
	}
	return NewAddressBook(entries), nil
}

// Lookup returns the entry for ric, if subscribed.
func (b *AddressBook) Lookup(ric uint32) (Entry, bool) {
	entry, ok := b.entries[ric]
	return entry, ok
}

// Len returns the number of subscribed RICs.
func (b *AddressBook) Len() int {
	return len(b.entries)
}

// Time broadcast RICs carrying the "YYYYMMDDHHMMSS<digits>" pattern.
const (
	timeRICPrimary   = 216
	timeRICSecondary = 224
	timeMarker       = "YYYYMMDDHHMMSS"
)

// ParseTimeBroadcast extracts the UTC timestamp from a network time
// broadcast. It recognises RIC 216 and 224 payloads carrying the literal
// marker "YYYYMMDDHHMMSS" followed by twelve digits (two-digit year first).
// The boolean is false for any other address or payload shape.
func ParseTimeBroadcast(address uint32, payload string) (calendar.DateTime, bool) {
	if address != timeRICPrimary && address != timeRICSecondary {
		return calendar.DateTime{}, false
	}

	idx := strings.Index(payload, timeMarker)
	if idx < 0 || len(payload) < idx+len(timeMarker)+12 {
		return calendar.DateTime{}, false
	}

	digits := payload[idx+len(timeMarker) : idx+len(timeMarker)+12]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return calendar.DateTime{}, false
		}
	}

	num := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	dt := calendar.DateTime{
		Year:   2000 + num(digits[0:2]),
		Month:  num(digits[2:4]),
		Day:    num(digits[4:6]),
		Hour:   num(digits[6:8]),
		Minute: num(digits[8:10]),
		Second: num(digits[10:12]),
		Valid:  true,
	}
	if dt.Month < 1 || dt.Month > 12 || dt.Day < 1 || dt.Day > calendar.DaysInMonth(dt.Month) {
		return calendar.DateTime{}, false
	}
	if dt.Hour > 23 || dt.Minute > 59 || dt.Second > 59 {
		return calendar.DateTime{}, false
	}
	return dt, true
}

// StreamFeed reads "address:payload" lines from a decoder stream. A reader
// goroutine only buffers frames into a bounded channel; all pager state
// mutation stays on the main loop, which drains the channel via Next.
type StreamFeed struct {
	frames chan Broadcast
	logger *slog.Logger
}

// NewStreamFeed starts reading from r until EOF or a read error. Frames that
// do not parse are logged and dropped; the feed never blocks the decoder for
// longer than the channel buffer allows.
func NewStreamFeed(r io.Reader, logger *slog.Logger) *StreamFeed {
	if logger == nil {
		logger = slog.Default()
	}
	f := &StreamFeed{
		frames: make(chan Broadcast, 64),
		logger: logger,
	}
	go f.readLoop(r)
	return f
}

func (f *StreamFeed) readLoop(r io.Reader) {
	defer close(f.frames)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		b, ok := ParseFrame(line)
		if !ok {
			f.logger.Warn("dropping malformed decoder frame")
			continue
		}
		f.frames <- b
	}
	if err := scanner.Err(); err != nil {
		f.logger.Error("decoder stream failed", "error", err)
	}
}

// ParseFrame parses one "address:payload" decoder line.
func ParseFrame(line string) (Broadcast, bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return Broadcast{}, false
	}
	address, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return Broadcast{}, false
	}
	return Broadcast{Address: uint32(address), Payload: parts[1]}, true
}

// Available reports whether at least one decoded broadcast is buffered.
func (f *StreamFeed) Available() bool {
	return len(f.frames) > 0
}

// Next returns the next buffered broadcast without blocking.
func (f *StreamFeed) Next() (Broadcast, bool) {
	select {
	case b, ok := <-f.frames:
		if !ok {
			return Broadcast{}, false
		}
		return b, true
	default:
		return Broadcast{}, false
	}
}
