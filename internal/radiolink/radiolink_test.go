package radiolink

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/pager-receiver/internal/calendar"
)

func TestParseTimeBroadcast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address uint32
		payload string
		want    calendar.DateTime
		ok      bool
	}{
		{
			name:    "ric 216 with marker",
			address: 216,
			payload: "YYYYMMDDHHMMSS251203200600",
			want:    calendar.DateTime{Year: 2025, Month: 12, Day: 3, Hour: 20, Minute: 6, Second: 0, Valid: true},
			ok:      true,
		},
		{
			name:    "ric 224 with leading noise",
			address: 224,
			payload: "noise YYYYMMDDHHMMSS240501100000 trailing",
			want:    calendar.DateTime{Year: 2024, Month: 5, Day: 1, Hour: 10, Minute: 0, Second: 0, Valid: true},
			ok:      true,
		},
		{
			name:    "wrong address",
			address: 1234,
			payload: "YYYYMMDDHHMMSS251203200600",
			ok:      false,
		},
		{
			name:    "payload too short after marker",
			address: 216,
			payload: "YYYYMMDDHHMMSS2512032006",
			ok:      false,
		},
		{
			name:    "non-digit in timestamp",
			address: 216,
			payload: "YYYYMMDDHHMMSS25120320060x",
			ok:      false,
		},
		{
			name:    "implausible month rejected",
			address: 216,
			payload: "YYYYMMDDHHMMSS259903200600",
			ok:      false,
		},
		{
			name:    "no marker",
			address: 216,
			payload: "251203200600",
			ok:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTimeBroadcast(tc.address, tc.payload)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("ParseTimeBroadcast() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseAddressBook(t *testing.T) {
	t.Parallel()

	book, err := ParseAddressBook("1234001:Fire Dept:0, 1234002:EMS:1, 99:Plain")
	if err != nil {
		t.Fatalf("ParseAddressBook failed: %v", err)
	}
	if book.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", book.Len())
	}

	entry, ok := book.Lookup(1234001)
	if !ok || entry.Name != "Fire Dept" || entry.ToneProfile != 0 {
		t.Fatalf("Lookup(1234001) = %+v ok %v", entry, ok)
	}
	entry, ok = book.Lookup(1234002)
	if !ok || entry.ToneProfile != 1 {
		t.Fatalf("Lookup(1234002) = %+v ok %v", entry, ok)
	}
	entry, ok = book.Lookup(99)
	if !ok || entry.Name != "Plain" || entry.ToneProfile != 0 {
		t.Fatalf("Lookup(99) = %+v ok %v", entry, ok)
	}
	if _, ok := book.Lookup(555); ok {
		t.Fatal("Lookup of unsubscribed ric succeeded")
	}
}

func TestParseAddressBookRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"notanumber:X:0", "1234", "1:Name:-2", "1:Name:abc"} {
		if _, err := ParseAddressBook(spec); err == nil {
			t.Fatalf("ParseAddressBook(%q) unexpectedly succeeded", spec)
		}
	}

	book, err := ParseAddressBook("")
	if err != nil {
		t.Fatalf("empty spec should parse: %v", err)
	}
	if book.Len() != 0 {
		t.Fatalf("empty spec produced %d entries", book.Len())
	}
}

func TestStreamFeedDeliversFramesWithoutBlocking(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"1234001:ALERT structure fire",
		"garbage line without a colon... wait",
		"216:YYYYMMDDHHMMSS240501100000",
		"",
	}, "\n")

	feed := NewStreamFeed(strings.NewReader(input), slog.New(slog.NewTextHandler(io.Discard, nil)))

	deadline := time.After(2 * time.Second)
	var got []Broadcast
	for len(got) < 2 {
		if b, ok := feed.Next(); ok {
			got = append(got, b)
			continue
		}
		select {
		case <-deadline:
			t.Fatalf("timed out, got %d frames", len(got))
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got[0].Address != 1234001 || got[0].Payload != "ALERT structure fire" {
		t.Fatalf("first frame = %+v", got[0])
	}
	if got[1].Address != 216 {
		t.Fatalf("second frame = %+v", got[1])
	}

	// Drained feed reports nothing available and Next never blocks.
	time.Sleep(20 * time.Millisecond)
	if feed.Available() {
		t.Fatal("drained feed still reports availability")
	}
	if _, ok := feed.Next(); ok {
		t.Fatal("Next returned a frame from a drained feed")
	}
}

func TestParseFrame(t *testing.T) {
	t.Parallel()

	b, ok := ParseFrame("42:payload with: colons")
	if !ok || b.Address != 42 || b.Payload != "payload with: colons" {
		t.Fatalf("ParseFrame = %+v ok %v", b, ok)
	}
	if _, ok := ParseFrame("no colon here"); ok {
		t.Fatal("frame without colon parsed")
	}
	if _, ok := ParseFrame("abc:payload"); ok {
		t.Fatal("non-numeric address parsed")
	}
}
