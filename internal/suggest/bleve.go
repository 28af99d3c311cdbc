package suggest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// Bleve serves suggestions from a dedicated bleve index directory,
// kept outside the tag database and rebuilt after each sync.
type Bleve struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	logger *slog.Logger
	closed bool
}

// Verify interface implementation at compile time
var _ Suggester = (*Bleve)(nil)

// bleveTag is the indexed document shape. The name is stored verbatim
// in a keyword-style field so prefix queries see whole tag names.
type bleveTag struct {
	Name string `json:"name"`
}

// NewBleve opens (or creates) the suggestion index at path. An empty
// path creates an in-memory index for tests.
func NewBleve(path string, logger *slog.Logger) (*Bleve, error) {
	mapping := bleve.NewIndexMapping()

	tagMapping := bleve.NewDocumentMapping()
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = "keyword"
	tagMapping.AddFieldMappingsAt("name", nameField)
	mapping.DefaultMapping = tagMapping

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, loomerr.StorageError("create suggestion index directory", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, loomerr.StorageError("open bleve suggestion index", err)
	}

	return &Bleve{index: idx, path: path, logger: logger}, nil
}

// Rebuild implements Suggester: delete-all plus batch reinsert.
func (b *Bleve) Rebuild(ctx context.Context, names []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return loomerr.StorageError("suggestion index is closed", nil)
	}

	// Drop every current entry first; tags that vanished from the
	// library must stop suggesting.
	existing, err := b.allIDsLocked()
	if err != nil {
		return err
	}

	batch := b.index.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if err := batch.Index(name, bleveTag{Name: name}); err != nil {
			return loomerr.StorageError("index suggestion entry "+name, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return loomerr.StorageError("rebuild suggestion index", err)
	}

	b.logger.Debug("suggester_rebuilt",
		slog.String("backend", BackendBleve),
		slog.Int("tags", len(names)))
	return nil
}

// Suggest implements Suggester.
func (b *Bleve) Suggest(ctx context.Context, terms []string, limit int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, loomerr.StorageError("suggestion index is closed", nil)
	}
	if len(terms) == 0 || limit <= 0 {
		return []string{}, nil
	}

	prefixes := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		pq := bleve.NewPrefixQuery(term)
		pq.SetField("name")
		prefixes = append(prefixes, pq)
	}
	if len(prefixes) == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(prefixes...))
	req.Size = limit
	req.Fields = []string{"name"}

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSuggestFailed, "prefix query failed", err)
	}

	names := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		names = append(names, hit.ID)
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// Close implements Suggester. Idempotent.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// allIDsLocked lists every indexed tag id. Caller holds the lock.
func (b *Bleve) allIDsLocked() ([]string, error) {
	count, err := b.index.DocCount()
	if err != nil {
		return nil, loomerr.StorageError("count suggestion entries", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)

	result, err := b.index.Search(req)
	if err != nil {
		return nil, loomerr.StorageError("enumerate suggestion entries", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
