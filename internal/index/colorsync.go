package index

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"time"

	"github.com/promptloom/tagindex/internal/async"
	"github.com/promptloom/tagindex/internal/cluster"
	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/fsys"
	"github.com/promptloom/tagindex/internal/store"
)

// edgeHeartbeat is how often progress is re-emitted while the
// co-occurrence edge query runs on large libraries.
const edgeHeartbeat = 2 * time.Second

// syncCategoryColors assigns a stable color to every folder observed
// in the snapshot and prunes colors of folders that vanished. Existing
// assignments are never changed.
func (s *Syncer) syncCategoryColors(ctx context.Context, tx *sql.Tx, snapshot []fsys.FileInfo) error {
	observed := observedFolders(s.deps.LibraryRoot, snapshot)

	existing, err := store.ListCategoryColors(ctx, tx)
	if err != nil {
		return err
	}

	taken := make(map[string]struct{}, len(existing))
	for _, color := range existing {
		taken[color] = struct{}{}
	}

	for _, folder := range observed {
		if _, ok := existing[folder]; ok {
			continue
		}
		color := cluster.FolderHex(folder, taken)
		if err := store.InsertCategoryColor(ctx, tx, folder, color); err != nil {
			return err
		}
		taken[color] = struct{}{}
	}

	return store.PruneCategoryColors(ctx, tx, observed)
}

// syncTagColors brings tag colors up to date. The hysteresis policy
// keeps cluster assignments stable across small library edits: a full
// recluster only happens on the first run or when the tag count moved
// past the threshold; otherwise new tags attach to the strongest
// neighbor cluster and every stored color stays untouched.
func (s *Syncer) syncTagColors(ctx context.Context, tx *sql.Tx, runID string, logger *slog.Logger, progress ProgressSink) error {
	tags, err := store.ListTags(ctx, tx)
	if err != nil {
		return err
	}

	if len(tags) == 0 {
		if err := store.DeleteVanishedTagColors(ctx, tx); err != nil {
			return err
		}
		return store.ResetTagColorState(ctx, tx)
	}

	names := make([]string, len(tags))
	ids := make([]int64, len(tags))
	nameByID := make(map[int64]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
		ids[i] = t.ID
		nameByID[t.ID] = t.Name
	}
	hash := cluster.TagSetHash(names)

	state, err := store.GetTagColorState(ctx, tx)
	if err != nil {
		return err
	}

	// Identical tag set: nothing can have changed.
	if hash == state.LastTagHash {
		return nil
	}

	colors, err := store.ListTagColors(ctx, tx)
	if err != nil {
		return err
	}

	if cluster.ShouldRecluster(state.LastTagCount, len(tags)) {
		err = s.recluster(ctx, tx, runID, logger, progress, ids, nameByID, colors)
	} else {
		err = s.attachNewTags(ctx, tx, runID, logger, progress, tags, nameByID, colors)
	}
	if err != nil {
		return err
	}

	if err := store.DeleteVanishedTagColors(ctx, tx); err != nil {
		return err
	}
	return store.UpdateTagColorState(ctx, tx, store.TagColorState{
		LastTagCount: len(tags),
		LastTagHash:  hash,
	})
}

// recluster reruns label propagation over the whole tag graph and
// rewrites every assignment that changed.
func (s *Syncer) recluster(ctx context.Context, tx *sql.Tx, runID string, logger *slog.Logger,
	progress ProgressSink, ids []int64, nameByID map[int64]string, colors map[string]store.TagColor) error {

	edges, err := s.loadEdges(ctx, tx, runID, progress)
	if err != nil {
		return err
	}

	labels := cluster.Propagate(ids, edges)
	indexes := cluster.ClusterIndexes(labels)
	k := len(indexes)

	logger.Info("tags_reclustered",
		slog.Int("tags", len(ids)),
		slog.Int("edges", len(edges)),
		slog.Int("clusters", k))

	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, id := range sorted {
		if err := loomerr.FromContext(ctx); err != nil {
			return err
		}

		name := nameByID[id]
		label := labels[id]
		hex := cluster.TagHex(name, indexes[label], k)

		if prev, ok := colors[name]; ok && prev.Color == hex && prev.ClusterID == label {
			continue
		}
		if err := store.UpsertTagColor(ctx, tx, store.TagColor{
			TagName:   name,
			Color:     hex,
			ClusterID: label,
		}); err != nil {
			return err
		}
	}

	return nil
}

// attachNewTags colors tags that appeared since the last clustering
// without touching existing assignments. Each new tag joins the
// neighbor cluster with the strongest connection, or becomes its own
// singleton cluster when isolated.
func (s *Syncer) attachNewTags(ctx context.Context, tx *sql.Tx, runID string, logger *slog.Logger,
	progress ProgressSink, tags []store.Tag, nameByID map[int64]string, colors map[string]store.TagColor) error {

	labels := make(map[int64]int64, len(tags))
	var newNodes []int64
	for _, t := range tags {
		if c, ok := colors[t.Name]; ok {
			labels[t.ID] = c.ClusterID
		} else {
			newNodes = append(newNodes, t.ID)
		}
	}
	if len(newNodes) == 0 {
		return nil
	}

	edges, err := s.loadEdges(ctx, tx, runID, progress)
	if err != nil {
		return err
	}

	cluster.Attach(labels, newNodes, edges)
	indexes := cluster.ClusterIndexes(labels)
	k := len(indexes)

	logger.Info("tags_attached",
		slog.Int("new_tags", len(newNodes)),
		slog.Int("clusters", k))

	sort.Slice(newNodes, func(i, j int) bool { return newNodes[i] < newNodes[j] })
	for _, id := range newNodes {
		name := nameByID[id]
		label := labels[id]
		if err := store.UpsertTagColor(ctx, tx, store.TagColor{
			TagName:   name,
			Color:     cluster.TagHex(name, indexes[label], k),
			ClusterID: label,
		}); err != nil {
			return err
		}
	}

	return nil
}

// loadEdges fetches the weighted co-occurrence graph. The query scans
// all file-tag pairs and can take a while on large libraries, so a
// heartbeat keeps progress flowing until it returns.
func (s *Syncer) loadEdges(ctx context.Context, tx *sql.Tx, runID string, progress ProgressSink) ([]cluster.Edge, error) {
	stop := async.Heartbeat(ctx, edgeHeartbeat, func() {
		emit(progress, runID, StageColors, 0, 0)
	})
	defer stop()

	raw, err := store.CoOccurrenceEdges(ctx, tx, cluster.MinEdgeWeight)
	if err != nil {
		return nil, err
	}

	edges := make([]cluster.Edge, len(raw))
	for i, e := range raw {
		edges[i] = cluster.Edge{A: e.A, B: e.B, Weight: e.Weight}
	}
	return edges, nil
}
