package store

import (
	"context"
	"fmt"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// SearchFilesByTags returns files whose associations cover all of the
// requested tags (strict AND), with per-source counts summed over
// exactly those tags. Scoring happens in the search service.
func SearchFilesByTags(ctx context.Context, q DBTX, tags []string) ([]FileAgg, error) {
	if len(tags) == 0 {
		return []FileAgg{}, nil
	}

	placeholders, args := stringPlaceholders(tags)
	args = append(args, len(tags))

	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT f.id, f.path, f.name,
		       SUM(ft.filename_count), SUM(ft.path_count), SUM(ft.content_count)
		FROM files f
		JOIN file_tags ft ON ft.file_id = f.id
		JOIN tags t ON t.id = ft.tag_id
		WHERE t.name IN (%s)
		GROUP BY f.id
		HAVING COUNT(DISTINCT t.id) = ?
	`, placeholders), args...)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "tag intersection query failed", err)
	}
	defer rows.Close()

	var aggs []FileAgg
	for rows.Next() {
		var a FileAgg
		if err := rows.Scan(&a.FileID, &a.Path, &a.Name, &a.Filename, &a.PathCnt, &a.Content); err != nil {
			return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "scan search row", err)
		}
		aggs = append(aggs, a)
	}
	if aggs == nil {
		aggs = []FileAgg{}
	}
	return aggs, rows.Err()
}

// CountTagRefs counts distinct files referencing tag within the given
// file paths.
func CountTagRefs(ctx context.Context, q DBTX, tag string, filePaths []string) (int, error) {
	if len(filePaths) == 0 {
		return 0, nil
	}

	placeholders, args := stringPlaceholders(filePaths)
	args = append([]any{tag}, args...)

	return scalarCount(ctx, q, fmt.Sprintf(`
		SELECT COUNT(DISTINCT ft.file_id)
		FROM file_tags ft
		JOIN tags t ON t.id = ft.tag_id
		JOIN files f ON f.id = ft.file_id
		WHERE t.name = ? AND f.path IN (%s)
	`, placeholders), args...)
}

// CountTagRefsAllFiles counts distinct files referencing tag
// index-wide.
func CountTagRefsAllFiles(ctx context.Context, q DBTX, tag string) (int, error) {
	return scalarCount(ctx, q, `
		SELECT COUNT(DISTINCT ft.file_id)
		FROM file_tags ft
		JOIN tags t ON t.id = ft.tag_id
		WHERE t.name = ?
	`, tag)
}

// RelatedTagAggs returns per-source sums for tags co-occurring within
// the given file paths, excluding the selected tags themselves.
func RelatedTagAggs(ctx context.Context, q DBTX, selected, filePaths []string) ([]TagAgg, error) {
	if len(filePaths) == 0 {
		return []TagAgg{}, nil
	}

	filePH, fileArgs := stringPlaceholders(filePaths)
	query := fmt.Sprintf(`
		SELECT t.name,
		       SUM(ft.filename_count), SUM(ft.path_count), SUM(ft.content_count)
		FROM file_tags ft
		JOIN tags t ON t.id = ft.tag_id
		JOIN files f ON f.id = ft.file_id
		WHERE f.path IN (%s)
	`, filePH)
	args := fileArgs

	if len(selected) > 0 {
		selPH, selArgs := stringPlaceholders(selected)
		query += fmt.Sprintf(` AND t.name NOT IN (%s)`, selPH)
		args = append(args, selArgs...)
	}
	query += ` GROUP BY t.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "related tags query failed", err)
	}
	defer rows.Close()

	var aggs []TagAgg
	for rows.Next() {
		var a TagAgg
		if err := rows.Scan(&a.Name, &a.Filename, &a.PathCnt, &a.Content); err != nil {
			return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "scan related tag row", err)
		}
		aggs = append(aggs, a)
	}
	if aggs == nil {
		aggs = []TagAgg{}
	}
	return aggs, rows.Err()
}

// TopTagsByContent returns the tags with the highest summed content
// counts within the given file paths.
func TopTagsByContent(ctx context.Context, q DBTX, filePaths []string, limit int) ([]TagCount, error) {
	if len(filePaths) == 0 || limit <= 0 {
		return []TagCount{}, nil
	}

	placeholders, args := stringPlaceholders(filePaths)
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT t.name, SUM(ft.content_count) AS total
		FROM file_tags ft
		JOIN tags t ON t.id = ft.tag_id
		JOIN files f ON f.id = ft.file_id
		WHERE f.path IN (%s)
		GROUP BY t.id
		HAVING total > 0
		ORDER BY total DESC, t.name
		LIMIT ?
	`, placeholders), args...)
	if err != nil {
		return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "top tags query failed", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, loomerr.New(loomerr.ErrCodeSearchFailed, "scan top tag row", err)
		}
		counts = append(counts, tc)
	}
	if counts == nil {
		counts = []TagCount{}
	}
	return counts, rows.Err()
}
