// Package stopwords loads and persists the stop-word set used by the
// tokenizer.
//
// The set lives in a small JSON document next to the rest of the
// PromptLoom config. On first access the document is created from the
// embedded English defaults; after that the file is the source of
// truth so users can edit it.
package stopwords

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DocumentVersion is the current stop-word document format version.
const DocumentVersion = 1

//go:embed defaults.json
var defaultsJSON []byte

// Document is the on-disk stop-word format.
type Document struct {
	Version   int      `json:"version"`
	StopWords []string `json:"stopWords"`
}

// Provider yields the stop-word set for tokenization.
type Provider interface {
	LoadOrCreate() (map[string]struct{}, error)
}

// Store persists the stop-word document at a fixed path. The loaded
// set is cached and read-only afterwards; it is the only long-lived
// in-memory cache the core keeps.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	cached map[string]struct{}
}

// Verify interface implementation at compile time
var _ Provider = (*Store)(nil)

// NewStore creates a stop-word store for the given document path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// LoadOrCreate returns the stop-word set, creating the document from
// the embedded defaults when it does not exist yet.
func (s *Store) LoadOrCreate() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	doc, err := s.load()
	if os.IsNotExist(err) {
		doc, err = s.create()
	}
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(doc.StopWords))
	for _, w := range doc.StopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}

	s.cached = set
	return set, nil
}

// load reads and parses the existing document.
func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stop-word document %s: %w", s.path, err)
	}
	return &doc, nil
}

// create writes the embedded defaults to disk and returns them.
func (s *Store) create() (*Document, error) {
	doc, err := Defaults()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create stop-word directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal stop-word defaults: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write stop-word document: %w", err)
	}

	s.logger.Info("stop_words_created",
		slog.String("path", s.path),
		slog.Int("count", len(doc.StopWords)))

	return doc, nil
}

// Defaults returns the embedded default stop-word document.
func Defaults() (*Document, error) {
	var doc Document
	if err := json.Unmarshal(defaultsJSON, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded stop-word defaults: %w", err)
	}
	return &doc, nil
}
