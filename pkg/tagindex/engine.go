// Package tagindex is the embedding facade: it wires the store,
// indexer, suggester, and search service together behind one Engine
// so the CLI and other hosts do not repeat the assembly.
package tagindex

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/promptloom/tagindex/internal/async"
	"github.com/promptloom/tagindex/internal/config"
	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/fsys"
	"github.com/promptloom/tagindex/internal/index"
	"github.com/promptloom/tagindex/internal/search"
	"github.com/promptloom/tagindex/internal/stopwords"
	"github.com/promptloom/tagindex/internal/store"
	"github.com/promptloom/tagindex/internal/suggest"
	"github.com/promptloom/tagindex/internal/telemetry"
	"github.com/promptloom/tagindex/internal/token"
)

// Engine is the assembled tag index: one writer store for syncs, a
// read-only pool for queries, and the search surface over it. Safe
// for concurrent use; create one per process.
type Engine struct {
	cfg *config.Config

	writer    *store.Store
	reader    *store.Store
	suggester suggest.Suggester
	syncer    *index.Syncer
	search    *search.Service
	runner    *async.Runner
	logger    *slog.Logger
}

// Open assembles an engine from configuration. The database schema is
// created or migrated on the spot.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath()), 0o755); err != nil {
		return nil, loomerr.StorageError("create data directory", err)
	}

	writer, err := store.Open(cfg.DatabasePath(), store.Options{CacheMB: cfg.Storage.SQLiteCacheMB}, logger)
	if err != nil {
		return nil, err
	}
	if err := writer.Initialize(ctx); err != nil {
		_ = writer.Close()
		return nil, err
	}

	reader, err := store.Open(cfg.DatabasePath(), store.Options{ReadOnly: true}, logger)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	e := &Engine{cfg: cfg, writer: writer, reader: reader, logger: logger, runner: async.NewRunner()}

	e.suggester, err = suggest.New(cfg.Search.Suggester, reader, cfg.BleveIndexPath(), logger)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	lemmatizer, err := token.NewEnglishLemmatizer()
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	tokenizer := token.NewTokenizer(lemmatizer, logger)
	stopWords := stopwords.NewStore(cfg.StopWordsPath(), logger)

	e.syncer, err = index.NewSyncer(index.Dependencies{
		Store:       writer,
		FS:          fsys.NewOS(),
		Tokenizer:   tokenizer,
		StopWords:   stopWords,
		Suggester:   e.suggester,
		Logger:      logger,
		LibraryRoot: cfg.Library.Root,
		LockPath:    cfg.LockPath(),
	})
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.search, err = search.NewService(search.Dependencies{
		Store:          reader,
		Suggester:      e.suggester,
		Tokenizer:      tokenizer,
		StopWords:      stopWords,
		Recorder:       telemetry.NewRecorder(writer.DB(), logger),
		Logger:         logger,
		ColorCacheSize: cfg.Search.ColorCacheSize,
	})
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	return e, nil
}

// Sync runs one full synchronization pass and refreshes derived
// caches on success.
func (e *Engine) Sync(ctx context.Context, progress index.ProgressSink) (index.SyncResult, error) {
	result, err := e.syncer.Sync(ctx, progress)
	if err != nil {
		return index.SyncResult{}, err
	}
	e.search.InvalidateColors()
	return result, nil
}

// SyncInBackground starts a sync on a background goroutine. Returns
// false when one is already running. Progress is observable through
// SyncStatus.
func (e *Engine) SyncInBackground(ctx context.Context) bool {
	return e.runner.Start(ctx, func(ctx context.Context) error {
		tracker := e.runner.Tracker()
		_, err := e.Sync(ctx, func(ev index.Event) {
			tracker.Update(string(ev.Stage), ev.Processed, ev.Total)
		})
		return err
	})
}

// SyncStatus returns the state of the background sync.
func (e *Engine) SyncStatus() async.Snapshot {
	return e.runner.Tracker().Snapshot()
}

// WaitForSync blocks until the background sync (if any) finishes.
func (e *Engine) WaitForSync() error {
	return e.runner.Wait()
}

// Search returns the query surface.
func (e *Engine) Search() *search.Service {
	return e.search
}

// IndexState returns the stored index bookkeeping row.
func (e *Engine) IndexState(ctx context.Context) (store.IndexState, error) {
	return store.GetIndexState(ctx, e.reader.DB())
}

// Counts returns the indexed file and tag totals.
func (e *Engine) Counts(ctx context.Context) (files, tags int, err error) {
	if files, err = store.CountFiles(ctx, e.reader.DB()); err != nil {
		return 0, 0, err
	}
	if tags, err = store.CountTags(ctx, e.reader.DB()); err != nil {
		return 0, 0, err
	}
	return files, tags, nil
}

// Tags lists every tag with its distinct-file count.
func (e *Engine) Tags(ctx context.Context) ([]store.Tag, error) {
	return store.ListTags(ctx, e.reader.DB())
}

// TagColorAssignments lists every stored tag color with its cluster.
func (e *Engine) TagColorAssignments(ctx context.Context) (map[string]store.TagColor, error) {
	return store.ListTagColors(ctx, e.reader.DB())
}

// CategoryColorAssignments lists every stored folder color.
func (e *Engine) CategoryColorAssignments(ctx context.Context) (map[string]string, error) {
	return store.ListCategoryColors(ctx, e.reader.DB())
}

// TelemetrySummary aggregates recorded query statistics.
func (e *Engine) TelemetrySummary(ctx context.Context) ([]telemetry.OpSummary, error) {
	return telemetry.Summary(ctx, e.reader.DB())
}

// DatabasePath returns the backing database location.
func (e *Engine) DatabasePath() string {
	return e.writer.Path()
}

// Close releases every resource. The engine is unusable afterwards.
func (e *Engine) Close() error {
	var firstErr error
	if e.suggester != nil {
		if err := e.suggester.Close(); err != nil {
			firstErr = err
		}
	}
	if e.reader != nil {
		if err := e.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.writer != nil {
		if err := e.writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
