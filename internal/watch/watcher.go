package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// DefaultQuietPeriod is how long the library must stay quiet before a
// sync triggers.
const DefaultQuietPeriod = 2 * time.Second

// OnBatch is called with each coalesced event batch once the library
// goes quiet. It typically runs one sync pass.
type OnBatch func(ctx context.Context, events []Event)

// Watcher watches the library root recursively and triggers syncs
// after bursts of changes settle.
type Watcher struct {
	root    string
	quiet   time.Duration
	onBatch OnBatch
	logger  *slog.Logger
}

// NewWatcher creates a watcher over root. A non-positive quiet period
// falls back to DefaultQuietPeriod.
func NewWatcher(root string, quiet time.Duration, onBatch OnBatch, logger *slog.Logger) *Watcher {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, quiet: quiet, onBatch: onBatch, logger: logger}
}

// Run watches until ctx is cancelled. Directories created under the
// root are picked up as they appear; only .txt file events count.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return loomerr.New(loomerr.ErrCodeInternal, "create file watcher", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := addRecursive(fsw, w.root); err != nil {
		return err
	}

	debouncer := NewDebouncer(w.quiet)
	defer debouncer.Close()

	// Batch delivery runs off the event loop so a slow sync never
	// backs up the fsnotify channel.
	batchDone := make(chan struct{})
	go func() {
		defer close(batchDone)
		for batch := range debouncer.Batches() {
			w.logger.Info("library_changed", slog.Int("events", len(batch)))
			w.onBatch(ctx, batch)
		}
	}()

	w.logger.Info("watch_started",
		slog.String("root", w.root),
		slog.Duration("quiet_period", w.quiet))

	for {
		select {
		case <-ctx.Done():
			debouncer.Close()
			<-batchDone
			return loomerr.FromContext(ctx)

		case event, ok := <-fsw.Events:
			if !ok {
				debouncer.Close()
				<-batchDone
				return nil
			}
			w.handle(fsw, debouncer, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				continue
			}
			w.logger.Warn("watch_error", slog.Any("error", err))
		}
	}
}

// handle routes one fsnotify event: new directories extend the watch,
// .txt file events feed the debouncer, everything else is ignored.
func (w *Watcher) handle(fsw *fsnotify.Watcher, debouncer *Debouncer, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(fsw, event.Name); err != nil {
				w.logger.Warn("watch_add_failed",
					slog.String("path", event.Name),
					slog.Any("error", err))
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
		return
	}

	op, ok := mapOp(event.Op)
	if !ok {
		return
	}
	debouncer.Add(Event{Path: event.Name, Op: op, Time: time.Now()})
}

// mapOp converts an fsnotify op to a library event op.
func mapOp(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpModify, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpDelete, true
	default:
		return 0, false
	}
}

// addRecursive watches root and every directory below it.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return loomerr.New(loomerr.ErrCodeFilePermission, "watch directory "+path, err)
		}
		return nil
	})
}
