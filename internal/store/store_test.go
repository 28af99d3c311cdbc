package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/tagindex/internal/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Tags.db")
	s, err := Open(path, DefaultOptions(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStore_Initialize_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Tags.db")
	s, err := Open(path, DefaultOptions(), logging.Discard())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()

	// Initializing twice must be a no-op, not an error.
	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Initialize(ctx))

	st, err := GetIndexState(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, st.SchemaVersion)

	// The singleton rows exist exactly once.
	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM index_state`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM tag_color_state`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestStore_Initialize_MigratesFormatVersionColumn(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// The migrated column defaults to 0, which reads as "older than
	// current" and forces a full rescan.
	st, err := GetIndexState(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, 0, st.FormatVersion)

	require.NoError(t, UpdateIndexState(ctx, s.DB(), 42, "/library", CurrentIndexFormatVersion))
	st, err = GetIndexState(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, CurrentIndexFormatVersion, st.FormatVersion)
	assert.Equal(t, int64(42), st.LastScanTicks)
	assert.Equal(t, "/library", st.LibraryRoot)
}

func TestStore_UpsertFile_InsertThenUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := UpsertFile(ctx, s.DB(), "/lib/a.txt", "a.txt", 100)
	require.NoError(t, err)

	// Same path upserts in place, id is stable.
	id2, err := UpsertFile(ctx, s.DB(), "/lib/a.txt", "a.txt", 200)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	files, err := ListFiles(ctx, s.DB())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(200), files[0].ModifiedTicks)
}

func TestStore_DeleteFiles_CascadesToFileTags(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fileID, err := UpsertFile(ctx, s.DB(), "/lib/a.txt", "a.txt", 1)
	require.NoError(t, err)
	tagID, err := EnsureTag(ctx, s.DB(), "head")
	require.NoError(t, err)
	require.NoError(t, InsertFileTag(ctx, s.DB(), fileID, tagID, FileTagCounts{Filename: 1}))

	require.NoError(t, DeleteFiles(ctx, s.DB(), []int64{fileID}))

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM file_tags`).Scan(&n))
	assert.Zero(t, n)

	// The tag row itself survives until orphan collection.
	require.NoError(t, DeleteOrphanTags(ctx, s.DB()))
	tags, err := ListTags(ctx, s.DB())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestStore_EnsureTag_CaseInsensitiveUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := EnsureTag(ctx, s.DB(), "head")
	require.NoError(t, err)
	id2, err := EnsureTag(ctx, s.DB(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestStore_RecountTagFiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f1, err := UpsertFile(ctx, s.DB(), "/lib/a.txt", "a.txt", 1)
	require.NoError(t, err)
	f2, err := UpsertFile(ctx, s.DB(), "/lib/b.txt", "b.txt", 1)
	require.NoError(t, err)
	tagID, err := EnsureTag(ctx, s.DB(), "body")
	require.NoError(t, err)
	require.NoError(t, InsertFileTag(ctx, s.DB(), f1, tagID, FileTagCounts{Content: 3}))
	require.NoError(t, InsertFileTag(ctx, s.DB(), f2, tagID, FileTagCounts{Content: 1}))

	require.NoError(t, RecountTagFiles(ctx, s.DB()))

	tags, err := ListTags(ctx, s.DB())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 2, tags[0].FileCount)
}

func TestStore_SuggestTags_PrefixMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"head", "headdress", "body", "heart"} {
		_, err := EnsureTag(ctx, s.DB(), name)
		require.NoError(t, err)
	}
	require.NoError(t, RebuildFullText(ctx, s.DB()))

	names, err := SuggestTags(ctx, s.DB(), []string{"hea"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "headdress", "heart"}, names)

	// AND of prefixes.
	names, err = SuggestTags(ctx, s.DB(), []string{"hea", "bod"}, 10)
	require.NoError(t, err)
	assert.Empty(t, names)

	// Limit caps alphabetical results.
	names, err = SuggestTags(ctx, s.DB(), []string{"hea"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "headdress"}, names)
}

func TestStore_SuggestTags_EdgeInputs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	names, err := SuggestTags(ctx, s.DB(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = SuggestTags(ctx, s.DB(), []string{"head"}, 0)
	require.NoError(t, err)
	assert.Empty(t, names)

	// FTS operators in user input must not break the query.
	names, err = SuggestTags(ctx, s.DB(), []string{`he"ad OR`}, 5)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_RebuildFullText_DropsStaleEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tagID, err := EnsureTag(ctx, s.DB(), "head")
	require.NoError(t, err)
	require.NoError(t, RebuildFullText(ctx, s.DB()))

	// Remove the tag and rebuild: the suggestion must disappear.
	_, err = s.DB().Exec(`DELETE FROM tags WHERE id = ?`, tagID)
	require.NoError(t, err)
	require.NoError(t, RebuildFullText(ctx, s.DB()))

	names, err := SuggestTags(ctx, s.DB(), []string{"hea"}, 5)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_CoOccurrenceEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	headID, err := EnsureTag(ctx, s.DB(), "head")
	require.NoError(t, err)
	bodyID, err := EnsureTag(ctx, s.DB(), "body")
	require.NoError(t, err)
	noiseID, err := EnsureTag(ctx, s.DB(), "noise")
	require.NoError(t, err)

	// head+body co-occur in filename/path buckets on two files;
	// noise only ever appears in content, so it never forms edges.
	for i, path := range []string{"/lib/a.txt", "/lib/b.txt"} {
		fileID, err := UpsertFile(ctx, s.DB(), path, filepath.Base(path), int64(i))
		require.NoError(t, err)
		require.NoError(t, InsertFileTag(ctx, s.DB(), fileID, headID, FileTagCounts{Filename: 1}))
		require.NoError(t, InsertFileTag(ctx, s.DB(), fileID, bodyID, FileTagCounts{Path: 1}))
		require.NoError(t, InsertFileTag(ctx, s.DB(), fileID, noiseID, FileTagCounts{Content: 5}))
	}

	edges, err := CoOccurrenceEdges(ctx, s.DB(), 2)
	require.NoError(t, err)
	require.Len(t, edges, 1)

	lo, hi := headID, bodyID
	if lo > hi {
		lo, hi = hi, lo
	}
	assert.Equal(t, Edge{A: lo, B: hi, Weight: 2}, edges[0])
}

func TestStore_CoOccurrenceEdges_MinWeightDropsThinEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	headID, err := EnsureTag(ctx, s.DB(), "head")
	require.NoError(t, err)
	bodyID, err := EnsureTag(ctx, s.DB(), "body")
	require.NoError(t, err)

	fileID, err := UpsertFile(ctx, s.DB(), "/lib/a.txt", "a.txt", 1)
	require.NoError(t, err)
	require.NoError(t, InsertFileTag(ctx, s.DB(), fileID, headID, FileTagCounts{Filename: 1}))
	require.NoError(t, InsertFileTag(ctx, s.DB(), fileID, bodyID, FileTagCounts{Filename: 1}))

	// A single co-occurring file stays below the >= 2 threshold.
	edges, err := CoOccurrenceEdges(ctx, s.DB(), 2)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
