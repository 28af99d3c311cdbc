package store

import (
	"context"
	"database/sql"
	"fmt"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// ListTagColors returns every stored tag color keyed by tag name.
func ListTagColors(ctx context.Context, q DBTX) (map[string]TagColor, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT tag_name, color, cluster_id FROM tag_colors`)
	if err != nil {
		return nil, loomerr.StorageError("list tag colors", err)
	}
	defer rows.Close()

	colors := make(map[string]TagColor)
	for rows.Next() {
		var tc TagColor
		if err := rows.Scan(&tc.TagName, &tc.Color, &tc.ClusterID); err != nil {
			return nil, loomerr.StorageError("scan tag color row", err)
		}
		colors[tc.TagName] = tc
	}
	return colors, rows.Err()
}

// UpsertTagColor writes one tag's color + cluster assignment.
func UpsertTagColor(ctx context.Context, q DBTX, tc TagColor) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tag_colors (tag_name, color, cluster_id)
		VALUES (?, ?, ?)
		ON CONFLICT(tag_name) DO UPDATE SET
			color = excluded.color,
			cluster_id = excluded.cluster_id
	`, tc.TagName, tc.Color, tc.ClusterID)
	if err != nil {
		return loomerr.StorageError(fmt.Sprintf("upsert tag color %s", tc.TagName), err)
	}
	return nil
}

// DeleteVanishedTagColors drops colors for tags no longer present.
func DeleteVanishedTagColors(ctx context.Context, q DBTX) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM tag_colors
		WHERE tag_name NOT IN (SELECT name FROM tags)
	`)
	if err != nil {
		return loomerr.StorageError("delete vanished tag colors", err)
	}
	return nil
}

// CountTagColors returns the number of stored tag colors.
func CountTagColors(ctx context.Context, q DBTX) (int, error) {
	return scalarCount(ctx, q, `SELECT COUNT(*) FROM tag_colors`)
}

// GetTagColors looks up colors for the given tag names. Missing tags
// are simply absent from the result.
func GetTagColors(ctx context.Context, q DBTX, names []string) (map[string]TagColor, error) {
	if len(names) == 0 {
		return map[string]TagColor{}, nil
	}

	placeholders, args := stringPlaceholders(names)
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT tag_name, color, cluster_id FROM tag_colors
		WHERE tag_name IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, loomerr.StorageError("get tag colors", err)
	}
	defer rows.Close()

	colors := make(map[string]TagColor, len(names))
	for rows.Next() {
		var tc TagColor
		if err := rows.Scan(&tc.TagName, &tc.Color, &tc.ClusterID); err != nil {
			return nil, loomerr.StorageError("scan tag color row", err)
		}
		colors[tc.TagName] = tc
	}
	return colors, rows.Err()
}

// ListCategoryColors returns every folder color keyed by folder path.
func ListCategoryColors(ctx context.Context, q DBTX) (map[string]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT folder_path, color FROM category_colors`)
	if err != nil {
		return nil, loomerr.StorageError("list category colors", err)
	}
	defer rows.Close()

	colors := make(map[string]string)
	for rows.Next() {
		var folder, color string
		if err := rows.Scan(&folder, &color); err != nil {
			return nil, loomerr.StorageError("scan category color row", err)
		}
		colors[folder] = color
	}
	return colors, rows.Err()
}

// InsertCategoryColor assigns a folder its color. Existing folders
// keep their color; assignment happens once.
func InsertCategoryColor(ctx context.Context, q DBTX, folder, color string) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO category_colors (folder_path, color) VALUES (?, ?)
	`, folder, color)
	if err != nil {
		return loomerr.StorageError(fmt.Sprintf("insert category color %s", folder), err)
	}
	return nil
}

// PruneCategoryColors removes colors for folders outside the observed
// set. An empty observed set clears the table.
func PruneCategoryColors(ctx context.Context, q DBTX, observed []string) error {
	if len(observed) == 0 {
		if _, err := q.ExecContext(ctx, `DELETE FROM category_colors`); err != nil {
			return loomerr.StorageError("prune category colors", err)
		}
		return nil
	}

	placeholders, args := stringPlaceholders(observed)
	_, err := q.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM category_colors WHERE folder_path NOT IN (%s)
	`, placeholders), args...)
	if err != nil {
		return loomerr.StorageError("prune category colors", err)
	}
	return nil
}

// CountCategoryColors returns the number of stored folder colors.
func CountCategoryColors(ctx context.Context, q DBTX) (int, error) {
	return scalarCount(ctx, q, `SELECT COUNT(*) FROM category_colors`)
}

// GetCategoryColors looks up colors for the given folder paths.
func GetCategoryColors(ctx context.Context, q DBTX, folders []string) (map[string]string, error) {
	if len(folders) == 0 {
		return map[string]string{}, nil
	}

	placeholders, args := stringPlaceholders(folders)
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT folder_path, color FROM category_colors
		WHERE folder_path IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, loomerr.StorageError("get category colors", err)
	}
	defer rows.Close()

	colors := make(map[string]string, len(folders))
	for rows.Next() {
		var folder, color string
		if err := rows.Scan(&folder, &color); err != nil {
			return nil, loomerr.StorageError("scan category color row", err)
		}
		colors[folder] = color
	}
	return colors, rows.Err()
}

// GetTagColorState reads the singleton hysteresis record.
func GetTagColorState(ctx context.Context, q DBTX) (TagColorState, error) {
	var st TagColorState
	err := q.QueryRowContext(ctx, `
		SELECT last_tag_count, last_tag_hash FROM tag_color_state WHERE id = 1
	`).Scan(&st.LastTagCount, &st.LastTagHash)
	if err == sql.ErrNoRows {
		return TagColorState{}, loomerr.ConsistencyError("tag_color_state row missing", nil)
	}
	if err != nil {
		return TagColorState{}, loomerr.StorageError("read tag color state", err)
	}
	return st, nil
}

// UpdateTagColorState stores the hysteresis record for the next pass.
func UpdateTagColorState(ctx context.Context, q DBTX, st TagColorState) error {
	_, err := q.ExecContext(ctx, `
		UPDATE tag_color_state SET last_tag_count = ?, last_tag_hash = ? WHERE id = 1
	`, st.LastTagCount, st.LastTagHash)
	if err != nil {
		return loomerr.StorageError("update tag color state", err)
	}
	return nil
}

// ResetTagColorState clears derived clustering state so the next sync
// reclusters from scratch. Maintenance tooling only.
func ResetTagColorState(ctx context.Context, q DBTX) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM tag_colors`); err != nil {
		return loomerr.StorageError("clear tag colors", err)
	}
	_, err := q.ExecContext(ctx, `
		UPDATE tag_color_state SET last_tag_count = 0, last_tag_hash = '' WHERE id = 1
	`)
	if err != nil {
		return loomerr.StorageError("reset tag color state", err)
	}
	return nil
}
