package ui

import (
	"fmt"
	"sync"
	"time"
)

// timeRounding keeps printed durations readable.
const timeRounding = 10 * time.Millisecond

// PlainRenderer prints one line per progress change. Suitable for
// pipes, CI logs, and --plain.
type PlainRenderer struct {
	cfg Config

	mu        sync.Mutex
	lastStage string
	lastPct   int
}

// Verify interface implementation at compile time
var _ Renderer = (*PlainRenderer)(nil)

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{cfg: cfg, lastPct: -1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start() error {
	return nil
}

// Update implements Renderer. Repeated updates within the same stage
// only print when the percentage moves, keeping logs readable.
func (r *PlainRenderer) Update(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Total <= 0 {
		if event.Stage != r.lastStage {
			fmt.Fprintf(r.cfg.Output, "%s...\n", event.Stage)
			r.lastStage = event.Stage
			r.lastPct = -1
		}
		return
	}

	pct := event.Processed * 100 / event.Total
	if event.Stage == r.lastStage && pct == r.lastPct {
		return
	}
	fmt.Fprintf(r.cfg.Output, "%s: %d/%d (%d%%)\n", event.Stage, event.Processed, event.Total, pct)
	r.lastStage = event.Stage
	r.lastPct = pct
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.cfg.Output,
		"Sync complete in %s: +%d ~%d -%d (%d files, %d tags)\n",
		stats.Duration.Round(timeRounding), stats.Added, stats.Updated, stats.Removed,
		stats.Files, stats.Tags)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
