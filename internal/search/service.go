// Package search implements the read side: weighted tag search,
// prefix suggestions, related tags, and color lookups over the
// committed index.
package search

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/stopwords"
	"github.com/promptloom/tagindex/internal/store"
	"github.com/promptloom/tagindex/internal/suggest"
	"github.com/promptloom/tagindex/internal/telemetry"
	"github.com/promptloom/tagindex/internal/token"
)

// Bucket weights. Filename hits dominate, path hits matter, content
// hits are a weak signal.
const (
	weightFilename = 0.6
	weightPath     = 0.3
	weightContent  = 0.1
)

// defaultColorCacheSize bounds the derived color LRU when the caller
// does not size it. Colors are tiny; this covers any realistic
// library.
const defaultColorCacheSize = 512

// FileResult is one search hit.
type FileResult struct {
	Path  string
	Name  string
	Score float64
	// Relevance is the score normalized to the best hit, 0-100.
	Relevance int
}

// RelatedTag is one co-occurring tag with normalized relevance.
type RelatedTag struct {
	Name      string
	Relevance int
}

// Dependencies carries the service collaborators. Recorder is
// optional; everything else is required.
type Dependencies struct {
	Store     *store.Store
	Suggester suggest.Suggester
	Tokenizer *token.Tokenizer
	StopWords stopwords.Provider
	Recorder  *telemetry.Recorder
	Logger    *slog.Logger

	// ColorCacheSize overrides the color LRU capacity when positive.
	ColorCacheSize int
}

// Service answers queries over the committed index. All methods are
// read-only and safe for concurrent use. Empty inputs yield empty
// results, never errors.
type Service struct {
	deps Dependencies

	// colors caches derived tag and category colors, keyed with a
	// "tag:" or "cat:" prefix. Purged wholesale after every sync.
	colors *lru.Cache[string, string]
}

// NewService validates dependencies and creates a service.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, loomerr.ValidationError("search service requires a store", nil)
	case deps.Suggester == nil:
		return nil, loomerr.ValidationError("search service requires a suggester", nil)
	case deps.Tokenizer == nil:
		return nil, loomerr.ValidationError("search service requires a tokenizer", nil)
	case deps.StopWords == nil:
		return nil, loomerr.ValidationError("search service requires a stop-word provider", nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	size := deps.ColorCacheSize
	if size <= 0 {
		size = defaultColorCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeInternal, "create color cache", err)
	}

	return &Service{deps: deps, colors: cache}, nil
}

// SuggestTags tokenizes the free-form query and returns tag names
// matching every token as a prefix, alphabetical, capped at limit.
func (s *Service) SuggestTags(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	stopWords, err := s.deps.StopWords.LoadOrCreate()
	if err != nil {
		return nil, loomerr.StorageError("load stop words", err)
	}

	counts := s.deps.Tokenizer.Tokenize([]string{query}, stopWords)
	if len(counts) == 0 {
		return nil, nil
	}
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	start := time.Now()
	names, err := s.deps.Suggester.Suggest(ctx, terms, limit)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSuggestFailed, "suggest tags", err)
	}
	s.deps.Recorder.Record(ctx, telemetry.OpSuggest, len(names), time.Since(start))

	return names, nil
}

// SearchFiles returns the files carrying every requested tag, scored
// by the weighted bucket sums and normalized to the best hit.
func (s *Service) SearchFiles(ctx context.Context, tags []string) ([]FileResult, error) {
	normalized := s.normalizeAll(tags)
	if len(normalized) == 0 {
		return nil, nil
	}

	start := time.Now()
	rows, err := store.SearchFilesByTags(ctx, s.deps.Store.DB(), normalized)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "search files", err)
	}

	results := make([]FileResult, len(rows))
	best := 0.0
	for i, row := range rows {
		score := weightFilename*float64(row.Filename) +
			weightPath*float64(row.PathCnt) +
			weightContent*float64(row.Content)
		results[i] = FileResult{Path: row.Path, Name: row.Name, Score: score}
		if score > best {
			best = score
		}
	}
	for i := range results {
		results[i].Relevance = relevancePercent(results[i].Score, best)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})

	s.deps.Recorder.Record(ctx, telemetry.OpSearch, len(results), time.Since(start))
	return results, nil
}

// CountTagReferences returns the distinct-file count of each tag
// within the given file set. Tags run in parallel.
func (s *Service) CountTagReferences(ctx context.Context, tags, filePaths []string) (map[string]int, error) {
	return s.countTags(ctx, tags, func(ctx context.Context, tag string) (int, error) {
		return store.CountTagRefs(ctx, s.deps.Store.DB(), tag, filePaths)
	})
}

// CountTagReferencesAllFiles returns the index-wide distinct-file
// count of each tag.
func (s *Service) CountTagReferencesAllFiles(ctx context.Context, tags []string) (map[string]int, error) {
	return s.countTags(ctx, tags, func(ctx context.Context, tag string) (int, error) {
		return store.CountTagRefsAllFiles(ctx, s.deps.Store.DB(), tag)
	})
}

func (s *Service) countTags(ctx context.Context, tags []string,
	count func(ctx context.Context, tag string) (int, error)) (map[string]int, error) {

	normalized := s.normalizeAll(tags)
	if len(normalized) == 0 {
		return map[string]int{}, nil
	}

	counts := make([]int, len(normalized))
	g, gctx := errgroup.WithContext(ctx)
	for i, tag := range normalized {
		i, tag := i, tag
		g.Go(func() error {
			n, err := count(gctx, tag)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "count tag references", err)
	}

	out := make(map[string]int, len(normalized))
	for i, tag := range normalized {
		out[tag] = counts[i]
	}
	return out, nil
}

// RelatedTags returns tags co-occurring with the selection inside the
// given file set, weighted like search results and normalized to the
// top score. A zero top score means nothing relevant: empty result.
func (s *Service) RelatedTags(ctx context.Context, selected, filePaths []string, limit int) ([]RelatedTag, error) {
	normalized := s.normalizeAll(selected)
	if len(normalized) == 0 || limit <= 0 {
		return nil, nil
	}

	start := time.Now()
	rows, err := store.RelatedTagAggs(ctx, s.deps.Store.DB(), normalized, filePaths)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "related tags", err)
	}

	type scored struct {
		name  string
		score float64
	}
	all := make([]scored, 0, len(rows))
	best := 0.0
	for _, row := range rows {
		score := weightFilename*float64(row.Filename) +
			weightPath*float64(row.PathCnt) +
			weightContent*float64(row.Content)
		all = append(all, scored{name: row.Name, score: score})
		if score > best {
			best = score
		}
	}
	if best == 0 {
		s.deps.Recorder.Record(ctx, telemetry.OpRelated, 0, time.Since(start))
		return nil, nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].name < all[j].name
	})
	if len(all) > limit {
		all = all[:limit]
	}

	related := make([]RelatedTag, len(all))
	for i, sc := range all {
		related[i] = RelatedTag{Name: sc.name, Relevance: relevancePercent(sc.score, best)}
	}

	s.deps.Recorder.Record(ctx, telemetry.OpRelated, len(related), time.Since(start))
	return related, nil
}

// TagColors returns the stored color of each known tag, LRU-cached.
func (s *Service) TagColors(ctx context.Context, tags []string) (map[string]string, error) {
	return s.cachedColors(ctx, "tag:", s.normalizeAll(tags), func(ctx context.Context, missing []string) (map[string]string, error) {
		colors, err := store.GetTagColors(ctx, s.deps.Store.DB(), missing)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(colors))
		for name, tc := range colors {
			out[name] = tc.Color
		}
		return out, nil
	})
}

// CategoryColors returns the stored color of each known folder,
// LRU-cached.
func (s *Service) CategoryColors(ctx context.Context, folderPaths []string) (map[string]string, error) {
	return s.cachedColors(ctx, "cat:", folderPaths, func(ctx context.Context, missing []string) (map[string]string, error) {
		return store.GetCategoryColors(ctx, s.deps.Store.DB(), missing)
	})
}

func (s *Service) cachedColors(ctx context.Context, prefix string, keys []string,
	load func(ctx context.Context, missing []string) (map[string]string, error)) (map[string]string, error) {

	out := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		if key == "" {
			continue
		}
		if color, ok := s.colors.Get(prefix + key); ok {
			out[key] = color
		} else {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := load(ctx, missing)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "load colors", err)
	}
	for key, color := range loaded {
		out[key] = color
		s.colors.Add(prefix+key, color)
	}
	return out, nil
}

// InvalidateColors drops the color cache. Called after every
// successful sync, since clustering may have recolored anything.
func (s *Service) InvalidateColors() {
	s.colors.Purge()
}

// TopTagsByContent returns the tags with the highest content-bucket
// totals within the given files.
func (s *Service) TopTagsByContent(ctx context.Context, filePaths []string, limit int) ([]store.TagCount, error) {
	if len(filePaths) == 0 || limit <= 0 {
		return nil, nil
	}
	rows, err := store.TopTagsByContent(ctx, s.deps.Store.DB(), filePaths, limit)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "top tags by content", err)
	}
	return rows, nil
}

// NormalizeTag reduces a free-form string to the canonical tag form.
func (s *Service) NormalizeTag(raw string) string {
	return s.deps.Tokenizer.Normalize(raw)
}

// normalizeAll normalizes and de-duplicates tags, preserving first
// occurrence order and dropping entries that normalize to nothing.
func (s *Service) normalizeAll(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := s.deps.Tokenizer.Normalize(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// relevancePercent normalizes score against the best score to 0-100.
func relevancePercent(score, best float64) int {
	if best <= 0 {
		return 0
	}
	pct := int(math.Round(score / best * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
