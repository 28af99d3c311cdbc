package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// ListFiles returns every tracked file.
func ListFiles(ctx context.Context, q DBTX) ([]File, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, path, name, modified_ticks FROM files`)
	if err != nil {
		return nil, loomerr.StorageError("list files", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Name, &f.ModifiedTicks); err != nil {
			return nil, loomerr.StorageError("scan file row", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpsertFile inserts or updates a file row and returns its id.
// A missing id after the upsert is a consistency failure and aborts
// the surrounding sync pass.
func UpsertFile(ctx context.Context, q DBTX, path, name string, modifiedTicks int64) (int64, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO files (path, name, modified_ticks)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			modified_ticks = excluded.modified_ticks
	`, path, name, modifiedTicks)
	if err != nil {
		return 0, loomerr.StorageError(fmt.Sprintf("upsert file %s", path), err)
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, loomerr.ConsistencyError(
			fmt.Sprintf("file %s missing after upsert", path), nil)
	}
	if err != nil {
		return 0, loomerr.StorageError(fmt.Sprintf("resolve file id for %s", path), err)
	}
	return id, nil
}

// DeleteFiles removes the given file rows. FileTag rows cascade.
func DeleteFiles(ctx context.Context, q DBTX, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders, args := int64Placeholders(ids)
	_, err := q.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM files WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return loomerr.StorageError("delete files", err)
	}
	return nil
}

// EnsureTag returns the id of the named tag, creating it on first
// occurrence.
func EnsureTag(ctx context.Context, q DBTX, name string) (int64, error) {
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO tags (name) VALUES (?)`, name); err != nil {
		return 0, loomerr.StorageError(fmt.Sprintf("insert tag %s", name), err)
	}

	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, loomerr.ConsistencyError(
			fmt.Sprintf("tag %s missing after insert", name), nil)
	}
	if err != nil {
		return 0, loomerr.StorageError(fmt.Sprintf("resolve tag id for %s", name), err)
	}
	return id, nil
}

// DeleteFileTags removes every FileTag row for a file, ahead of a full
// re-derive. Associations are never patched in place.
func DeleteFileTags(ctx context.Context, q DBTX, fileID int64) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM file_tags WHERE file_id = ?`, fileID)
	if err != nil {
		return loomerr.StorageError("delete file tags", err)
	}
	return nil
}

// InsertFileTag writes one freshly derived association row.
func InsertFileTag(ctx context.Context, q DBTX, fileID, tagID int64, c FileTagCounts) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO file_tags (file_id, tag_id, count, filename_count, path_count, content_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fileID, tagID, c.Total(), c.Filename, c.Path, c.Content)
	if err != nil {
		return loomerr.StorageError("insert file tag", err)
	}
	return nil
}

// DeleteOrphanTags garbage-collects tags with no remaining
// associations.
func DeleteOrphanTags(ctx context.Context, q DBTX) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM tags
		WHERE id NOT IN (SELECT DISTINCT tag_id FROM file_tags)
	`)
	if err != nil {
		return loomerr.StorageError("delete orphan tags", err)
	}
	return nil
}

// RecountTagFiles recomputes every tag's denormalized distinct-file
// count from the association table.
func RecountTagFiles(ctx context.Context, q DBTX) error {
	_, err := q.ExecContext(ctx, `
		UPDATE tags SET file_count = (
			SELECT COUNT(DISTINCT file_id) FROM file_tags WHERE tag_id = tags.id
		)
	`)
	if err != nil {
		return loomerr.StorageError("recount tag files", err)
	}
	return nil
}

// ListTags returns every tag ordered by id.
func ListTags(ctx context.Context, q DBTX) ([]Tag, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, file_count FROM tags ORDER BY id`)
	if err != nil {
		return nil, loomerr.StorageError("list tags", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.FileCount); err != nil {
			return nil, loomerr.StorageError("scan tag row", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CountFiles returns the number of tracked files.
func CountFiles(ctx context.Context, q DBTX) (int, error) {
	return scalarCount(ctx, q, `SELECT COUNT(*) FROM files`)
}

// CountTags returns the number of tags.
func CountTags(ctx context.Context, q DBTX) (int, error) {
	return scalarCount(ctx, q, `SELECT COUNT(*) FROM tags`)
}

// GetIndexState reads the singleton bookkeeping row.
func GetIndexState(ctx context.Context, q DBTX) (IndexState, error) {
	var st IndexState
	err := q.QueryRowContext(ctx, `
		SELECT schema_version, last_scan_ticks, library_root, format_version
		FROM index_state WHERE id = 1
	`).Scan(&st.SchemaVersion, &st.LastScanTicks, &st.LibraryRoot, &st.FormatVersion)
	if err == sql.ErrNoRows {
		return IndexState{}, loomerr.ConsistencyError("index_state row missing", nil)
	}
	if err != nil {
		return IndexState{}, loomerr.StorageError("read index state", err)
	}
	return st, nil
}

// UpdateIndexState stamps the singleton row after a successful pass.
func UpdateIndexState(ctx context.Context, q DBTX, lastScanTicks int64, libraryRoot string, formatVersion int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE index_state
		SET last_scan_ticks = ?, library_root = ?, format_version = ?
		WHERE id = 1
	`, lastScanTicks, libraryRoot, formatVersion)
	if err != nil {
		return loomerr.StorageError("update index state", err)
	}
	return nil
}

// SetFormatVersion overrides the stored index-format version. Used by
// maintenance tooling to force a full rescan.
func SetFormatVersion(ctx context.Context, q DBTX, version int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE index_state SET format_version = ? WHERE id = 1`, version)
	if err != nil {
		return loomerr.StorageError("set format version", err)
	}
	return nil
}

// CoOccurrenceEdges builds the weighted tag co-occurrence edge set.
// Only filename/path signals count; content co-occurrence is too
// noisy. Edges lighter than minWeight are dropped.
func CoOccurrenceEdges(ctx context.Context, q DBTX, minWeight int) ([]Edge, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.tag_id, b.tag_id, COUNT(DISTINCT a.file_id) AS weight
		FROM file_tags a
		JOIN file_tags b ON a.file_id = b.file_id AND a.tag_id < b.tag_id
		WHERE a.filename_count + a.path_count > 0
		  AND b.filename_count + b.path_count > 0
		GROUP BY a.tag_id, b.tag_id
		HAVING COUNT(DISTINCT a.file_id) >= ?
	`, minWeight)
	if err != nil {
		return nil, loomerr.StorageError("load co-occurrence edges", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.A, &e.B, &e.Weight); err != nil {
			return nil, loomerr.StorageError("scan edge row", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// scalarCount runs a single-value COUNT query.
func scalarCount(ctx context.Context, q DBTX, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, loomerr.StorageError("count query", err)
	}
	return n, nil
}

// stringPlaceholders expands a string slice into SQL placeholders.
func stringPlaceholders(values []string) (string, []any) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return strings.Join(marks, ","), args
}

// int64Placeholders expands an id slice into SQL placeholders.
func int64Placeholders(values []int64) (string, []any) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return strings.Join(marks, ","), args
}
