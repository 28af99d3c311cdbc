package index

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptloom/tagindex/internal/fsys"
	"github.com/promptloom/tagindex/internal/store"
	"github.com/promptloom/tagindex/internal/token"
)

// extractTags computes the weighted tag buckets for one file. The
// final path segment minus its extension feeds the filename bucket,
// the remaining segments feed the path bucket, and the file contents
// feed the content bucket. Buckets merge additively per tag.
func extractTags(tok *token.Tokenizer, stopWords map[string]struct{}, relPath, content string) map[string]store.FileTagCounts {
	segments := strings.Split(filepath.ToSlash(relPath), "/")

	base := segments[len(segments)-1]
	stem := strings.TrimSuffix(base, path.Ext(base))
	dirs := segments[:len(segments)-1]

	counts := make(map[string]store.FileTagCounts)

	for name, n := range tok.Tokenize([]string{stem}, stopWords) {
		c := counts[name]
		c.Filename += n
		counts[name] = c
	}
	for name, n := range tok.Tokenize(dirs, stopWords) {
		c := counts[name]
		c.Path += n
		counts[name] = c
	}
	if content != "" {
		for name, n := range tok.Tokenize([]string{content}, stopWords) {
			c := counts[name]
			c.Content += n
			counts[name] = c
		}
	}

	return counts
}

// relativePath returns p relative to root, falling back to the base
// name when p is not under root.
func relativePath(root, p string) string {
	rel, err := filepath.Rel(filepath.FromSlash(root), filepath.FromSlash(p))
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(p)
	}
	return rel
}

// observedFolders returns every folder path above the given files,
// relative to root, slash separated, deduplicated and sorted. Each
// ancestor counts: a file in "Locations/Urban" contributes both
// "Locations" and "Locations/Urban".
func observedFolders(root string, infos []fsys.FileInfo) []string {
	set := make(map[string]struct{})
	for _, info := range infos {
		dir := path.Dir(filepath.ToSlash(relativePath(root, info.Path)))
		for dir != "." && dir != "/" && dir != "" {
			set[dir] = struct{}{}
			dir = path.Dir(dir)
		}
	}

	folders := make([]string, 0, len(set))
	for f := range set {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	return folders
}

// sortedTagNames returns the keys of a bucket map in stable order so
// inserts happen deterministically.
func sortedTagNames(counts map[string]store.FileTagCounts) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
