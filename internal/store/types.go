// Package store owns the embedded tag database: schema creation,
// versioned migrations, connection lifecycle, and every SQL query the
// indexer and search service run against it.
package store

import (
	"context"
	"database/sql"
)

const (
	// CurrentSchemaVersion is bumped whenever a migration is added.
	CurrentSchemaVersion = 3

	// CurrentIndexFormatVersion is bumped whenever tokenization rules
	// change in a way that invalidates stored tags. A stored value
	// older than this forces a full rescan regardless of timestamps.
	// Version 2 introduced the lemmatizer.
	CurrentIndexFormatVersion = 2
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so the same query helpers run inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// File is a tracked source document.
type File struct {
	ID   int64
	Path string
	Name string
	// ModifiedTicks is the last-write stamp, treated as opaque and
	// compared for equality only.
	ModifiedTicks int64
}

// Tag is a normalized token with a denormalized distinct-file count.
type Tag struct {
	ID        int64
	Name      string
	FileCount int
}

// FileTagCounts is the weighted association between a file and a tag,
// split by source. Total is always the sum of the three buckets.
type FileTagCounts struct {
	Filename int
	Path     int
	Content  int
}

// Total returns the summed occurrence count.
func (c FileTagCounts) Total() int {
	return c.Filename + c.Path + c.Content
}

// IndexState is the singleton bookkeeping row for the index.
type IndexState struct {
	SchemaVersion int
	LastScanTicks int64
	LibraryRoot   string
	FormatVersion int
}

// TagColor is the stable color + cluster assignment for one tag.
type TagColor struct {
	TagName   string
	Color     string
	ClusterID int64
}

// TagColorState is the singleton hysteresis record for clustering.
type TagColorState struct {
	LastTagCount int
	LastTagHash  string
}

// Edge is one weighted co-occurrence edge between two tags.
type Edge struct {
	A      int64
	B      int64
	Weight int
}

// FileAgg is one search result row: a file with its summed per-source
// counts over the requested tags.
type FileAgg struct {
	FileID   int64
	Path     string
	Name     string
	Filename int
	PathCnt  int
	Content  int
}

// TagAgg is one related-tag row with summed per-source counts.
type TagAgg struct {
	Name     string
	Filename int
	PathCnt  int
	Content  int
}

// TagCount pairs a tag name with a count.
type TagCount struct {
	Name  string
	Count int
}
