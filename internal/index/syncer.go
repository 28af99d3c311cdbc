// Package index implements the library synchronization pass: it
// diffs the prompt library against the stored index and brings files,
// tags, weighted associations, the suggestion index, and derived
// colors up to date inside a single transaction.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/fsys"
	"github.com/promptloom/tagindex/internal/stopwords"
	"github.com/promptloom/tagindex/internal/store"
	"github.com/promptloom/tagindex/internal/suggest"
	"github.com/promptloom/tagindex/internal/token"
)

// filePattern selects the prompt documents the indexer tracks.
const filePattern = "*.txt"

// lockRetryDelay is how often the cross-process file lock is retried
// while another process holds it.
const lockRetryDelay = 100 * time.Millisecond

// Clock supplies the scan timestamp so tests control time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock production Clock.
func SystemClock() Clock { return systemClock{} }

// Dependencies carries every collaborator the syncer needs. All fields
// except Clock, Suggester, Logger and LockPath are required.
type Dependencies struct {
	Store     *store.Store
	FS        fsys.FS
	Tokenizer *token.Tokenizer
	StopWords stopwords.Provider

	// Suggester gets a post-commit rebuild on backends that keep their
	// index outside the transaction. Optional.
	Suggester suggest.Suggester

	Clock  Clock
	Logger *slog.Logger

	// LibraryRoot is the directory scanned for prompt files.
	LibraryRoot string

	// LockPath enables cross-process sync exclusion when non-empty.
	LockPath string
}

// Syncer runs full synchronization passes, one at a time.
type Syncer struct {
	deps Dependencies

	// sem serializes syncs in-process; callers block until the permit
	// frees, then run a fresh full pass.
	sem *semaphore.Weighted
}

// NewSyncer validates dependencies and creates a syncer.
func NewSyncer(deps Dependencies) (*Syncer, error) {
	switch {
	case deps.Store == nil:
		return nil, loomerr.ValidationError("syncer requires a store", nil)
	case deps.FS == nil:
		return nil, loomerr.ValidationError("syncer requires a file system", nil)
	case deps.Tokenizer == nil:
		return nil, loomerr.ValidationError("syncer requires a tokenizer", nil)
	case deps.StopWords == nil:
		return nil, loomerr.ValidationError("syncer requires a stop-word provider", nil)
	case deps.LibraryRoot == "":
		return nil, loomerr.ValidationError("syncer requires a library root", nil)
	}

	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Syncer{
		deps: deps,
		sem:  semaphore.NewWeighted(1),
	}, nil
}

// Sync runs one full synchronization pass. At most one pass runs at a
// time process-wide; concurrent callers block until the current pass
// finishes, then run their own. Any error rolls the whole pass back.
func (s *Syncer) Sync(ctx context.Context, progress ProgressSink) (SyncResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return SyncResult{}, loomerr.Cancelled(err)
	}
	defer s.sem.Release(1)

	runID := uuid.NewString()
	logger := s.deps.Logger.With(slog.String("run_id", runID))

	if s.deps.LockPath != "" {
		lock := flock.New(s.deps.LockPath)
		locked, err := lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			if ctxErr := loomerr.FromContext(ctx); ctxErr != nil {
				return SyncResult{}, ctxErr
			}
			return SyncResult{}, loomerr.StorageError("acquire sync lock", err)
		}
		if !locked {
			return SyncResult{}, loomerr.New(loomerr.ErrCodeStoreBusy, "sync lock held by another process", nil)
		}
		defer func() { _ = lock.Unlock() }()
	}

	start := time.Now()
	logger.Info("sync_started", slog.String("library_root", s.deps.LibraryRoot))

	result, err := s.run(ctx, runID, logger, progress)
	if err != nil {
		if loomerr.IsCancelled(err) {
			logger.Info("sync_cancelled", slog.Duration("elapsed", time.Since(start)))
		} else {
			logger.Error("sync_failed", slog.Any("error", err))
		}
		return SyncResult{}, err
	}

	logger.Info("sync_completed",
		slog.Int("added", result.AddedFiles),
		slog.Int("updated", result.UpdatedFiles),
		slog.Int("removed", result.RemovedFiles),
		slog.Int("total_files", result.TotalFiles),
		slog.Int("total_tags", result.TotalTags),
		slog.Duration("elapsed", time.Since(start)))

	s.rebuildSuggester(ctx, logger)
	return result, nil
}

// run executes the pass body under the sync permit.
func (s *Syncer) run(ctx context.Context, runID string, logger *slog.Logger, progress ProgressSink) (SyncResult, error) {
	if err := s.deps.Store.Initialize(ctx); err != nil {
		return SyncResult{}, err
	}

	if !s.deps.FS.DirExists(s.deps.LibraryRoot) {
		return SyncResult{}, loomerr.New(loomerr.ErrCodeLibraryMissing,
			fmt.Sprintf("library root not found: %s", s.deps.LibraryRoot), nil)
	}

	stopWords, err := s.deps.StopWords.LoadOrCreate()
	if err != nil {
		return SyncResult{}, loomerr.StorageError("load stop words", err)
	}

	emit(progress, runID, StageEnumerate, 0, 0)
	snapshot, err := s.deps.FS.EnumerateFiles(ctx, s.deps.LibraryRoot, filePattern)
	if err != nil {
		if ctxErr := loomerr.FromContext(ctx); ctxErr != nil {
			return SyncResult{}, ctxErr
		}
		return SyncResult{}, loomerr.New(loomerr.ErrCodeFileUnreadable, "enumerate library", err)
	}
	emit(progress, runID, StageEnumerate, len(snapshot), len(snapshot))

	tx, err := s.deps.Store.BeginTx(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err := s.runInTx(ctx, tx, runID, logger, progress, snapshot, stopWords)
	if err != nil {
		return SyncResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return SyncResult{}, loomerr.StorageError("commit sync transaction", err)
	}
	committed = true

	return result, nil
}

// runInTx performs the synchronization steps inside one transaction.
func (s *Syncer) runInTx(ctx context.Context, tx *sql.Tx, runID string, logger *slog.Logger,
	progress ProgressSink, snapshot []fsys.FileInfo, stopWords map[string]struct{}) (SyncResult, error) {

	state, err := store.GetIndexState(ctx, tx)
	if err != nil {
		return SyncResult{}, err
	}
	forceResync := state.FormatVersion < store.CurrentIndexFormatVersion
	if forceResync {
		logger.Info("index_format_outdated",
			slog.Int("stored", state.FormatVersion),
			slog.Int("current", store.CurrentIndexFormatVersion))
	}

	stored, err := store.ListFiles(ctx, tx)
	if err != nil {
		return SyncResult{}, err
	}

	// Paths compare case-insensitively: the library usually lives on a
	// case-preserving file system.
	storedByKey := make(map[string]store.File, len(stored))
	for _, f := range stored {
		storedByKey[strings.ToLower(f.Path)] = f
	}
	seen := make(map[string]struct{}, len(snapshot))

	var changed []fsys.FileInfo
	var removedIDs []int64
	var added, updated int

	for _, info := range snapshot {
		key := strings.ToLower(info.Path)
		seen[key] = struct{}{}

		prev, known := storedByKey[key]
		switch {
		case !known:
			added++
			changed = append(changed, info)
		case forceResync || prev.ModifiedTicks != info.ModTime.UnixNano():
			updated++
			changed = append(changed, info)
		}
	}
	for _, f := range stored {
		if _, ok := seen[strings.ToLower(f.Path)]; !ok {
			removedIDs = append(removedIDs, f.ID)
		}
	}

	if err := store.DeleteFiles(ctx, tx, removedIDs); err != nil {
		return SyncResult{}, err
	}

	if err := s.indexFiles(ctx, tx, runID, logger, progress, changed, stopWords); err != nil {
		return SyncResult{}, err
	}

	emit(progress, runID, StageCleanup, 0, 0)
	if err := store.DeleteOrphanTags(ctx, tx); err != nil {
		return SyncResult{}, err
	}
	if err := store.RecountTagFiles(ctx, tx); err != nil {
		return SyncResult{}, err
	}

	now := s.deps.Clock.Now()
	if err := store.UpdateIndexState(ctx, tx, now.UnixNano(), s.deps.LibraryRoot, store.CurrentIndexFormatVersion); err != nil {
		return SyncResult{}, err
	}

	emit(progress, runID, StageFullText, 0, 0)
	if err := store.RebuildFullText(ctx, tx); err != nil {
		return SyncResult{}, err
	}

	totalFiles, err := store.CountFiles(ctx, tx)
	if err != nil {
		return SyncResult{}, err
	}
	totalTags, err := store.CountTags(ctx, tx)
	if err != nil {
		return SyncResult{}, err
	}

	emit(progress, runID, StageColors, 0, 0)
	if err := s.syncCategoryColors(ctx, tx, snapshot); err != nil {
		return SyncResult{}, err
	}
	if err := s.syncTagColors(ctx, tx, runID, logger, progress); err != nil {
		return SyncResult{}, err
	}

	totalColors, err := store.CountTagColors(ctx, tx)
	if err != nil {
		return SyncResult{}, err
	}

	return SyncResult{
		AddedFiles:   added,
		UpdatedFiles: updated,
		RemovedFiles: len(removedIDs),
		TotalFiles:   totalFiles,
		TotalTags:    totalTags,
		TotalColors:  totalColors,
	}, nil
}

// indexFiles reprocesses every changed-or-new file: upsert the File
// row, drop its old associations, and insert fresh weighted buckets.
func (s *Syncer) indexFiles(ctx context.Context, tx *sql.Tx, runID string, logger *slog.Logger,
	progress ProgressSink, changed []fsys.FileInfo, stopWords map[string]struct{}) error {

	total := len(changed)
	step := total / 20
	if step < 1 {
		step = 1
	}

	for i, info := range changed {
		if err := loomerr.FromContext(ctx); err != nil {
			return err
		}

		fileID, err := store.UpsertFile(ctx, tx, info.Path, info.Name, info.ModTime.UnixNano())
		if err != nil {
			return err
		}
		if err := store.DeleteFileTags(ctx, tx, fileID); err != nil {
			return err
		}

		// A file that cannot be read still indexes by name and path.
		content, err := s.deps.FS.ReadAllText(info.Path)
		if err != nil {
			logger.Warn("file_content_unreadable",
				slog.String("path", info.Path),
				slog.Any("error", err))
			content = ""
		}

		rel := relativePath(s.deps.LibraryRoot, info.Path)
		counts := extractTags(s.deps.Tokenizer, stopWords, rel, content)

		for _, name := range sortedTagNames(counts) {
			tagID, err := store.EnsureTag(ctx, tx, name)
			if err != nil {
				return err
			}
			if err := store.InsertFileTag(ctx, tx, fileID, tagID, counts[name]); err != nil {
				return err
			}
		}

		if (i+1)%step == 0 || i+1 == total {
			emit(progress, runID, StageIndex, i+1, total)
		}
	}

	return nil
}

// rebuildSuggester refreshes suggestion backends that live outside the
// transaction. The index is already committed; a rebuild failure only
// degrades suggestions, so it is logged and absorbed.
func (s *Syncer) rebuildSuggester(ctx context.Context, logger *slog.Logger) {
	if s.deps.Suggester == nil {
		return
	}

	tags, err := store.ListTags(ctx, s.deps.Store.DB())
	if err != nil {
		logger.Warn("suggester_rebuild_skipped", slog.Any("error", err))
		return
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	if err := s.deps.Suggester.Rebuild(ctx, names); err != nil {
		logger.Warn("suggester_rebuild_failed", slog.Any("error", err))
	}
}

func emit(progress ProgressSink, runID string, stage Stage, processed, total int) {
	if progress == nil {
		return
	}
	progress(Event{RunID: runID, Stage: stage, Processed: processed, Total: total})
}
