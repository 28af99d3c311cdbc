// Package fsys abstracts the file system underneath the indexer.
//
// The indexer is a pure consumer of the prompt library tree: it
// enumerates, stats, and reads files, and never writes into the tree.
// Production code uses OS; tests use Fake.
package fsys

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileInfo describes one enumerated library file.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string
	// Name is the base name including extension.
	Name string
	// ModTime is the last-write timestamp.
	ModTime time.Time
}

// FS is the file-system collaborator injected into the indexer.
type FS interface {
	// FileExists reports whether path exists and is a regular file.
	FileExists(path string) bool

	// DirExists reports whether path exists and is a directory.
	DirExists(path string) bool

	// EnumerateFiles walks root recursively and returns every file whose
	// base name matches pattern (filepath.Match syntax). Unreadable
	// subtrees are skipped, not fatal. Honors ctx between entries.
	EnumerateFiles(ctx context.Context, root, pattern string) ([]FileInfo, error)

	// ReadAllText reads the full contents of path as text.
	ReadAllText(path string) (string, error)

	// LastWriteTime returns the last-write timestamp of path.
	LastWriteTime(path string) (time.Time, error)
}

// OS implements FS against the real file system.
type OS struct{}

// Verify interface implementation at compile time
var _ FS = (*OS)(nil)

// NewOS creates the production file-system collaborator.
func NewOS() *OS {
	return &OS{}
}

// FileExists implements FS.
func (o *OS) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists implements FS.
func (o *OS) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnumerateFiles implements FS.
func (o *OS) EnumerateFiles(ctx context.Context, root, pattern string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Unreadable entry: skip the subtree rather than failing
			// the whole enumeration.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		matched, matchErr := filepath.Match(pattern, d.Name())
		if matchErr != nil {
			return matchErr
		}
		if !matched {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			Name:    d.Name(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// ReadAllText implements FS.
func (o *OS) ReadAllText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LastWriteTime implements FS.
func (o *OS) LastWriteTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
