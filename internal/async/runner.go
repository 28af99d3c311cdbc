package async

import (
	"context"
	"sync"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// SyncFunc is the actual sync work run by the Runner. Implementations
// report progress through the tracker themselves.
type SyncFunc func(ctx context.Context) error

// Runner executes one sync at a time in a background goroutine with
// progress tracking. A second Start while a run is active is refused;
// process-wide sync exclusion itself lives in the indexer.
type Runner struct {
	tracker *Tracker

	mu      sync.Mutex
	running bool
	doneCh  chan struct{}
	err     error
}

// NewRunner creates a runner with a fresh tracker.
func NewRunner() *Runner {
	return &Runner{tracker: NewTracker()}
}

// Tracker returns the progress tracker for polling.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// IsRunning reports whether a run is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start begins fn in the background. Returns false when a run is
// already active.
func (r *Runner) Start(ctx context.Context, fn SyncFunc) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.running = true
	r.doneCh = make(chan struct{})
	r.err = nil
	r.mu.Unlock()

	r.tracker.Begin()

	go func() {
		err := fn(ctx)

		switch {
		case err == nil:
			r.tracker.Done()
		case loomerr.IsCancelled(err):
			r.tracker.Cancel()
		default:
			r.tracker.Fail(err.Error())
		}

		r.mu.Lock()
		r.err = err
		r.running = false
		close(r.doneCh)
		r.mu.Unlock()
	}()

	return true
}

// Wait blocks until the current run (if any) completes and returns
// its error.
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.doneCh
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
