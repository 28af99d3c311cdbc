// Package suggest abstracts the prefix-suggestion index behind a
// small interface with two interchangeable backends: SQLite FTS5
// (default, lives inside Tags.db and is maintained in-transaction by
// the sync pass) and Bleve (separate index directory, rebuilt after
// each sync).
package suggest

import (
	"context"
	"log/slog"

	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/store"
)

// Suggester answers AND-of-prefix autocomplete queries over the tag
// name set.
type Suggester interface {
	// Rebuild replaces the index contents with the given tag names.
	// Called after every successful sync.
	Rebuild(ctx context.Context, names []string) error

	// Suggest returns tag names matching every prefix term,
	// alphabetically, capped at limit. Empty terms or limit <= 0
	// yield an empty list. Malformed input yields an empty list,
	// not an error.
	Suggest(ctx context.Context, terms []string, limit int) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by New.
const (
	BackendFTS5  = "fts5"
	BackendBleve = "bleve"
)

// New creates a suggester for the named backend.
//
// For fts5, st is the tag store whose tag_fts table serves the
// queries. For bleve, path is the index directory ("" for an
// in-memory index in tests).
func New(backend string, st *store.Store, path string, logger *slog.Logger) (Suggester, error) {
	switch backend {
	case BackendFTS5, "":
		return NewFTS5(st), nil
	case BackendBleve:
		return NewBleve(path, logger)
	default:
		return nil, loomerr.New(loomerr.ErrCodeInvalidBackend,
			"unknown suggester backend: "+backend+" (valid options: fts5, bleve)", nil)
	}
}

// FTS5 serves suggestions from the tag_fts table inside the tag
// database.
type FTS5 struct {
	store *store.Store
}

// Verify interface implementation at compile time
var _ Suggester = (*FTS5)(nil)

// NewFTS5 creates the FTS5-backed suggester.
func NewFTS5(st *store.Store) *FTS5 {
	return &FTS5{store: st}
}

// Rebuild implements Suggester. The tag_fts table is already rebuilt
// inside the sync transaction, so there is nothing left to do here.
func (f *FTS5) Rebuild(ctx context.Context, names []string) error {
	return nil
}

// Suggest implements Suggester.
func (f *FTS5) Suggest(ctx context.Context, terms []string, limit int) ([]string, error) {
	return store.SuggestTags(ctx, f.store.DB(), terms, limit)
}

// Close implements Suggester. The store is owned by the caller.
func (f *FTS5) Close() error {
	return nil
}
