package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/tagindex/internal/logging"
	"github.com/promptloom/tagindex/internal/stopwords"
	"github.com/promptloom/tagindex/internal/store"
	"github.com/promptloom/tagindex/internal/suggest"
	"github.com/promptloom/tagindex/internal/token"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "Tags.db"), store.DefaultOptions(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Initialize(context.Background()))

	svc, err := NewService(Dependencies{
		Store:     st,
		Suggester: suggest.NewFTS5(st),
		Tokenizer: token.NewTokenizer(nil, logging.Discard()),
		StopWords: stopwords.NewStore(filepath.Join(dir, "StopWords.json"), logging.Discard()),
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)
	return svc, st
}

// seedFile inserts one file with the given tag buckets directly.
func seedFile(t *testing.T, st *store.Store, path string, tags map[string]store.FileTagCounts) {
	t.Helper()
	ctx := context.Background()

	fileID, err := store.UpsertFile(ctx, st.DB(), path, filepath.Base(path), 1)
	require.NoError(t, err)
	for name, counts := range tags {
		tagID, err := store.EnsureTag(ctx, st.DB(), name)
		require.NoError(t, err)
		require.NoError(t, store.InsertFileTag(ctx, st.DB(), fileID, tagID, counts))
	}
	require.NoError(t, store.RebuildFullText(ctx, st.DB()))
}

func TestSearchFiles_StrictANDIntersection(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/both.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
		"head": {Filename: 1},
	})
	seedFile(t, st, "/lib/only-body.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
	})

	results, err := svc.SearchFiles(context.Background(), []string{"body", "head"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/lib/both.txt", results[0].Path)

	results, err = svc.SearchFiles(context.Background(), []string{"body", "missing"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFiles_WeightedScoringAndRelevance(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/strong.txt", map[string]store.FileTagCounts{
		"body": {Filename: 2},
	})
	seedFile(t, st, "/lib/weak.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
	})
	seedFile(t, st, "/lib/content-only.txt", map[string]store.FileTagCounts{
		"body": {Content: 6},
	})

	results, err := svc.SearchFiles(context.Background(), []string{"body"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// 0.6*2 > 0.6*1 = 0.1*6.
	assert.Equal(t, "/lib/strong.txt", results[0].Path)
	assert.InDelta(t, 1.2, results[0].Score, 1e-9)
	assert.Equal(t, 100, results[0].Relevance)

	assert.Equal(t, "/lib/content-only.txt", results[1].Path)
	assert.Equal(t, 50, results[1].Relevance)
	assert.Equal(t, "/lib/weak.txt", results[2].Path)
	assert.Equal(t, 50, results[2].Relevance)
}

func TestSearchFiles_NormalizesAndDeduplicates(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
	})

	results, err := svc.SearchFiles(context.Background(), []string{" Body ", "BODY"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchFiles_EmptyInput(t *testing.T) {
	svc, _ := newService(t)

	results, err := svc.SearchFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.SearchFiles(context.Background(), []string{"  ", "..."})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSuggestTags_PrefixMatch(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"head":  {Filename: 1},
		"heart": {Filename: 1},
		"body":  {Filename: 1},
	})

	got, err := svc.SuggestTags(context.Background(), "hea", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "heart"}, got)
}

func TestSuggestTags_EdgeInputs(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"head": {Filename: 1},
	})

	got, err := svc.SuggestTags(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.SuggestTags(context.Background(), "hea", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCountTagReferences_ScopedAndIndexWide(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
	})
	seedFile(t, st, "/lib/b.txt", map[string]store.FileTagCounts{
		"body": {Content: 1},
		"head": {Filename: 1},
	})

	ctx := context.Background()

	all, err := svc.CountTagReferencesAllFiles(ctx, []string{"body", "head", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"body": 2, "head": 1, "missing": 0}, all)

	scoped, err := svc.CountTagReferences(ctx, []string{"body"}, []string{"/lib/a.txt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"body": 1}, scoped)
}

func TestRelatedTags_ExcludesSelectionAndNormalizes(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"body":  {Filename: 1},
		"head":  {Filename: 2},
		"torso": {Filename: 1},
	})

	related, err := svc.RelatedTags(context.Background(),
		[]string{"body"}, []string{"/lib/a.txt"}, 10)
	require.NoError(t, err)
	require.Len(t, related, 2)

	assert.Equal(t, RelatedTag{Name: "head", Relevance: 100}, related[0])
	assert.Equal(t, RelatedTag{Name: "torso", Relevance: 50}, related[1])
}

func TestRelatedTags_EmptyWhenNothingCoOccurs(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
	})

	related, err := svc.RelatedTags(context.Background(),
		[]string{"body"}, []string{"/lib/a.txt"}, 10)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestTagColors_CachedUntilInvalidated(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"body": {Filename: 1},
	})
	require.NoError(t, store.UpsertTagColor(ctx, st.DB(), store.TagColor{
		TagName: "body", Color: "AABBCC", ClusterID: 1,
	}))

	colors, err := svc.TagColors(ctx, []string{"body"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"body": "AABBCC"}, colors)

	// A stale cache keeps serving the old color until invalidated.
	require.NoError(t, store.UpsertTagColor(ctx, st.DB(), store.TagColor{
		TagName: "body", Color: "112233", ClusterID: 1,
	}))

	colors, err = svc.TagColors(ctx, []string{"body"})
	require.NoError(t, err)
	assert.Equal(t, "AABBCC", colors["body"])

	svc.InvalidateColors()
	colors, err = svc.TagColors(ctx, []string{"body"})
	require.NoError(t, err)
	assert.Equal(t, "112233", colors["body"])
}

func TestCategoryColors_UnknownFoldersOmitted(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	require.NoError(t, store.InsertCategoryColor(ctx, st.DB(), "Portraits", "DDEEFF"))

	colors, err := svc.CategoryColors(ctx, []string{"Portraits", "Unknown"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Portraits": "DDEEFF"}, colors)
}

func TestTopTagsByContent(t *testing.T) {
	svc, st := newService(t)
	seedFile(t, st, "/lib/a.txt", map[string]store.FileTagCounts{
		"wizard": {Content: 5},
		"tower":  {Content: 2},
		"old":    {Filename: 1},
	})

	top, err := svc.TopTagsByContent(context.Background(), []string{"/lib/a.txt"}, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, store.TagCount{Name: "wizard", Count: 5}, top[0])
	assert.Equal(t, store.TagCount{Name: "tower", Count: 2}, top[1])
}

func TestNormalizeTag(t *testing.T) {
	svc, _ := newService(t)

	assert.Equal(t, "brunette", svc.NormalizeTag("  Brunette "))
	assert.Equal(t, "", svc.NormalizeTag("  ...  "))
}
