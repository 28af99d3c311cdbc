// Package async provides background processing infrastructure for
// tagindex: a thread-safe sync progress tracker, a best-effort
// heartbeat for long phases, and a single-flight background runner.
package async

import (
	"sync"
	"time"
)

// SyncStatus represents the overall state of a sync run.
type SyncStatus string

const (
	// StatusIdle indicates no sync has started yet.
	StatusIdle SyncStatus = "idle"
	// StatusSyncing indicates a sync is in progress.
	StatusSyncing SyncStatus = "syncing"
	// StatusDone indicates the last sync completed.
	StatusDone SyncStatus = "done"
	// StatusError indicates the last sync failed.
	StatusError SyncStatus = "error"
	// StatusCancelled indicates the last sync was cancelled. Not an
	// error: the index simply was not updated.
	StatusCancelled SyncStatus = "cancelled"
)

// Snapshot is an immutable view of sync progress for pollers.
type Snapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage"`
	Processed      int     `json:"processed"`
	Total          int     `json:"total"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Tracker provides thread-safe tracking of sync progress.
type Tracker struct {
	mu sync.RWMutex

	status    SyncStatus
	stage     string
	processed int
	total     int
	startTime time.Time
	errMsg    string
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{status: StatusIdle}
}

// Begin marks the start of a sync run and resets progress.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusSyncing
	t.stage = ""
	t.processed = 0
	t.total = 0
	t.errMsg = ""
	t.startTime = time.Now()
}

// Update records stage progress.
func (t *Tracker) Update(stage string, processed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stage = stage
	t.processed = processed
	t.total = total
}

// Done marks the run complete.
func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusDone
}

// Fail marks the run failed with a message.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusError
	t.errMsg = message
}

// Cancel marks the run cancelled.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusCancelled
}

// Snapshot returns an immutable copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var pct float64
	if t.total > 0 {
		pct = float64(t.processed) / float64(t.total) * 100.0
		if pct > 100 {
			pct = 100
		}
	}

	var elapsed int
	if !t.startTime.IsZero() {
		elapsed = int(time.Since(t.startTime).Seconds())
	}

	return Snapshot{
		Status:         string(t.status),
		Stage:          t.stage,
		Processed:      t.processed,
		Total:          t.total,
		ProgressPct:    pct,
		ElapsedSeconds: elapsed,
		ErrorMessage:   t.errMsg,
	}
}
