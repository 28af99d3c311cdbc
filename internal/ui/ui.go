// Package ui renders sync progress in the terminal: a bubbletea TUI
// for interactive sessions, plain line output for pipes and CI.
package ui

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// ProgressEvent is one progress update from a running sync.
type ProgressEvent struct {
	Stage     string
	Processed int
	Total     int
}

// CompletionStats summarizes a finished sync for display.
type CompletionStats struct {
	Added    int
	Updated  int
	Removed  int
	Files    int
	Tags     int
	Colors   int
	Duration time.Duration
}

// Renderer displays sync progress.
type Renderer interface {
	// Start initializes the renderer.
	Start() error

	// Update refreshes the progress display.
	Update(event ProgressEvent)

	// Complete shows the final summary.
	Complete(stats CompletionStats)

	// Stop tears the renderer down. Safe to call after Complete.
	Stop() error
}

// Config configures renderer selection.
type Config struct {
	Output io.Writer
	// ForcePlain skips the TUI even on a TTY.
	ForcePlain bool
	NoColor    bool
}

// NewRenderer picks a renderer for the environment: TUI on an
// interactive terminal, plain text otherwise.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor honors the NO_COLOR convention.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
