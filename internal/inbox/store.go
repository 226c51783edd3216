// Package inbox holds received pager messages in a fixed-capacity ring
// buffer. Once the ring is full each insert overwrites the logically oldest
// slot; there is no separate delete path.
package inbox

import "github.com/example/pager-receiver/internal/calendar"

// DefaultCapacity is the standard number of ring slots.
const DefaultCapacity = 64

// Direction selects which neighbour AdvanceView moves to.
type Direction int

const (
	// DirectionOlder moves the view cursor towards earlier slots.
	DirectionOlder Direction = iota
	// DirectionNewer moves the view cursor towards later slots.
	DirectionNewer
)

// Message is one received page. Valid marks an occupied ring slot; messages
// are copied by value in and out of the store.
type Message struct {
	Address   uint32
	Label     string
	Body      string
	Timestamp calendar.DateTime
	Valid     bool
}

// Store is the ring buffer of received messages plus the viewer cursor.
// It is mutated only from the main loop.
type Store struct {
	slots        []Message
	writeIndex   int
	count        int
	currentIndex int
}

// NewStore constructs an empty store. Non-positive capacities fall back to
// DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{slots: make([]Message, capacity)}
}

// Capacity returns the fixed slot count.
func (s *Store) Capacity() int {
	return len(s.slots)
}

// Count returns the number of currently valid slots.
func (s *Store) Count() int {
	return s.count
}

// Reset invalidates every slot and rewinds all cursors.
func (s *Store) Reset() {
	for i := range s.slots {
		s.slots[i] = Message{}
	}
	s.writeIndex = 0
	s.count = 0
	s.currentIndex = 0
}

// Insert stores a freshly received message, stamps it with ts, and makes it
// the current view. Returns the slot index the message landed in.
func (s *Store) Insert(address uint32, label, body string, ts calendar.DateTime) int {
	return s.push(Message{
		Address:   address,
		Label:     label,
		Body:      body,
		Timestamp: ts,
	})
}

// RestoreInsert replays a fully formed message through the same ring
// mechanics. Used during boot replay; after a full replay the view cursor
// points at the newest restored message, matching live inserts.
func (s *Store) RestoreInsert(msg Message) int {
	return s.push(msg)
}

func (s *Store) push(msg Message) int {
	msg.Valid = true
	slot := s.writeIndex
	s.slots[slot] = msg

	s.writeIndex = (s.writeIndex + 1) % len(s.slots)
	if s.count < len(s.slots) {
		s.count++
	}
	s.currentIndex = slot
	return slot
}

// AdvanceView moves the view cursor to the next valid slot in the requested
// direction, wrapping around the ring. When no other valid slot exists the
// cursor stays put.
func (s *Store) AdvanceView(direction Direction) {
	if s.count == 0 {
		return
	}

	step := 1
	if direction == DirectionOlder {
		step = -1
	}

	idx := s.currentIndex
	for i := 0; i < len(s.slots); i++ {
		idx = (idx + step + len(s.slots)) % len(s.slots)
		if s.slots[idx].Valid {
			s.currentIndex = idx
			return
		}
	}
}

// Current returns the message under the view cursor along with its slot
// index. A cursor that no longer references a valid slot is healed by
// scanning for the nearest valid slot first.
func (s *Store) Current() (Message, int, bool) {
	if s.count == 0 {
		return Message{}, 0, false
	}
	s.healCursor()
	return s.slots[s.currentIndex], s.currentIndex, true
}

// healCursor repairs currentIndex when it points at an invalid slot, scanning
// from the top of the ring down for the first valid message.
func (s *Store) healCursor() {
	if s.currentIndex >= 0 && s.currentIndex < len(s.slots) && s.slots[s.currentIndex].Valid {
		return
	}
	for i := len(s.slots) - 1; i >= 0; i-- {
		if s.slots[i].Valid {
			s.currentIndex = i
			return
		}
	}
}

// LogicalPosition reports the 1-based ordinal of the current message among
// all valid slots in slot order, plus the total count. Recomputed on every
// call; used for the "x/n" status display.
func (s *Store) LogicalPosition() (int, int) {
	if s.count == 0 {
		return 0, 0
	}
	s.healCursor()

	position := 0
	seen := 0
	for i := range s.slots {
		if !s.slots[i].Valid {
			continue
		}
		seen++
		if i == s.currentIndex {
			position = seen
			break
		}
	}
	return position, s.count
}

// OldestIndex returns the slot index of the logically oldest valid message,
// scanning forward from the write cursor. Returns -1 when empty.
func (s *Store) OldestIndex() int {
	if s.count == 0 {
		return -1
	}
	for i := 0; i < len(s.slots); i++ {
		idx := (s.writeIndex + i) % len(s.slots)
		if s.slots[idx].Valid {
			return idx
		}
	}
	return -1
}

// Slot returns the message at idx by value.
func (s *Store) Slot(idx int) (Message, bool) {
	if idx < 0 || idx >= len(s.slots) {
		return Message{}, false
	}
	msg := s.slots[idx]
	return msg, msg.Valid
}

// Messages returns every valid message oldest-first, walking the ring from
// the oldest slot. Intended for read-only consumers.
func (s *Store) Messages() []Message {
	if s.count == 0 {
		return nil
	}
	out := make([]Message, 0, s.count)
	idx := s.OldestIndex()
	for len(out) < s.count {
		if msg := s.slots[idx]; msg.Valid {
			out = append(out, msg)
		}
		idx = (idx + 1) % len(s.slots)
	}
	return out
}
