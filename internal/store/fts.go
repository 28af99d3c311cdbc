package store

import (
	"context"
	"strings"

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// RebuildFullText repopulates the tag_fts prefix index from the tags
// table. Runs inside the sync transaction so the suggestion index is
// never visible out of step with the tags it mirrors.
func RebuildFullText(ctx context.Context, q DBTX) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM tag_fts`); err != nil {
		return loomerr.StorageError("clear tag_fts", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO tag_fts (name) SELECT name FROM tags`); err != nil {
		return loomerr.StorageError("repopulate tag_fts", err)
	}
	return nil
}

// SuggestTags answers an AND of prefix terms against the tag_fts
// index, alphabetically, capped at limit. Empty terms or a
// non-positive limit yield an empty list. A malformed FTS query yields
// an empty list rather than an error.
func SuggestTags(ctx context.Context, q DBTX, terms []string, limit int) ([]string, error) {
	if len(terms) == 0 || limit <= 0 {
		return []string{}, nil
	}

	prefixes := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		// Quote each term so FTS5 operators in user input stay literal.
		prefixes = append(prefixes, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	if len(prefixes) == 0 {
		return []string{}, nil
	}

	match := strings.Join(prefixes, " AND ")
	rows, err := q.QueryContext(ctx, `
		SELECT name FROM tag_fts
		WHERE tag_fts MATCH ?
		ORDER BY name
		LIMIT ?
	`, match, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return []string{}, nil
		}
		return nil, loomerr.New(loomerr.ErrCodeSuggestFailed, "prefix query failed", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, loomerr.New(loomerr.ErrCodeSuggestFailed, "scan suggestion row", err)
		}
		names = append(names, name)
	}
	if names == nil {
		names = []string{}
	}
	return names, rows.Err()
}
