package ws

import (
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 1000
	defaultBufferMaxAge = 1 * time.Hour
)

// EventBuffer keeps the most recent events, in id order, for replay on
// reconnect.
type EventBuffer struct {
	mu     sync.RWMutex
	seq    uint64
	events []Event
	maxAge time.Duration
	maxLen int
	now    func() time.Time
}

// NewEventBuffer creates an EventBuffer with the given limits.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	return &EventBuffer{
		maxAge: maxAge,
		maxLen: maxLen,
		now:    time.Now,
	}
}

// Append assigns the next sequence ID to event and stores it, evicting
// expired entries and enforcing the length cap. IDs are assigned under the
// same lock as the append, so the buffer stays sorted by ID.
func (eb *EventBuffer) Append(event *Event) uint64 {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.seq++
	event.ID = eb.seq

	cutoff := eb.now().Add(-eb.maxAge)
	start := 0
	for start < len(eb.events) && eb.events[start].Time.Before(cutoff) {
		start++
	}

	buf := append(eb.events[start:], *event)
	if len(buf) > eb.maxLen {
		buf = buf[len(buf)-eb.maxLen:]
	}

	eb.events = buf

	return event.ID
}

// Since returns the buffered events with ID > lastEventID that match the
// project filter.
func (eb *EventBuffer) Since(project string, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Binary search for the first event with ID > lastEventID.
	lo, hi := 0, len(eb.events)
	for lo < hi {
		mid := (lo + hi) / 2
		if eb.events[mid].ID <= lastEventID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	var out []Event
	for _, evt := range eb.events[lo:] {
		if matches(project, evt.Project) {
			out = append(out, evt)
		}
	}

	return out
}

// OldestID returns the oldest buffered event ID, or 0 if empty.
func (eb *EventBuffer) OldestID() uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if len(eb.events) == 0 {
		return 0
	}

	return eb.events[0].ID
}
