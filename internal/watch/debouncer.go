package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid file events so a burst of library edits
// triggers one sync instead of many. Events for the same path within
// the quiet window merge by first-seen operation:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
//
// A batch is emitted once the library stays quiet for the full window.
type Debouncer struct {
	quiet time.Duration
	out   chan []Event

	mu      sync.Mutex
	pending map[string]pendingEvent
	timer   *time.Timer
	closed  bool
}

type pendingEvent struct {
	event Event
	// firstOp is the operation that opened this window, which drives
	// the coalescing rules above.
	firstOp Op
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet:   quiet,
		out:     make(chan []Event, 4),
		pending: make(map[string]pendingEvent),
	}
}

// Add records one event, coalescing with any pending event for the
// same path, and restarts the quiet window.
func (d *Debouncer) Add(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if existing, ok := d.pending[event.Path]; ok {
		merged, keep := coalesce(existing, event)
		if !keep {
			delete(d.pending, event.Path)
		} else {
			d.pending[event.Path] = merged
		}
	} else {
		d.pending[event.Path] = pendingEvent{event: event, firstOp: event.Op}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.flush)
}

// Batches returns the channel of coalesced event batches. Closed by
// Close.
func (d *Debouncer) Batches() <-chan []Event {
	return d.out
}

// Close stops the debouncer and closes the batch channel. Pending
// events are discarded. Safe to call multiple times.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.out)
}

// flush emits everything pending as one batch. The send happens under
// the lock so Close can never race it into a closed channel.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || len(d.pending) == 0 {
		return
	}
	batch := make([]Event, 0, len(d.pending))
	for _, p := range d.pending {
		batch = append(batch, p.event)
	}
	d.pending = make(map[string]pendingEvent)

	d.out <- batch
}

// coalesce merges a new event into the pending one. The second return
// is false when the pair cancels out entirely.
func coalesce(existing pendingEvent, next Event) (pendingEvent, bool) {
	switch existing.firstOp {
	case OpCreate:
		switch next.Op {
		case OpModify:
			// Still a brand-new file.
			return existing, true
		case OpDelete:
			return pendingEvent{}, false
		}

	case OpModify:
		// MODIFY + anything keeps the latest operation.

	case OpDelete:
		if next.Op == OpCreate {
			// Replaced in place.
			next.Op = OpModify
			return pendingEvent{event: next, firstOp: existing.firstOp}, true
		}
	}

	return pendingEvent{event: next, firstOp: existing.firstOp}, true
}
