package fsys

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fake is an in-memory FS for tests. Paths use forward slashes and are
// matched exactly as added.
type Fake struct {
	mu    sync.Mutex
	files map[string]*fakeFile
}

type fakeFile struct {
	content string
	modTime time.Time
	readErr error
}

// Verify interface implementation at compile time
var _ FS = (*Fake)(nil)

// NewFake creates an empty fake file system.
func NewFake() *Fake {
	return &Fake{files: make(map[string]*fakeFile)}
}

// AddFile adds or replaces a file with the given content and timestamp.
func (f *Fake) AddFile(path, content string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[filepath.ToSlash(path)] = &fakeFile{content: content, modTime: modTime}
}

// RemoveFile deletes a file if present.
func (f *Fake) RemoveFile(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, filepath.ToSlash(path))
}

// Touch updates a file's timestamp without changing its content.
func (f *Fake) Touch(path string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ff, ok := f.files[filepath.ToSlash(path)]; ok {
		ff.modTime = modTime
	}
}

// FailReads makes ReadAllText return err for path, simulating a locked
// or permission-denied file. The file still enumerates normally.
func (f *Fake) FailReads(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ff, ok := f.files[filepath.ToSlash(path)]; ok {
		ff.readErr = err
	}
}

// FileExists implements FS.
func (f *Fake) FileExists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[filepath.ToSlash(path)]
	return ok
}

// DirExists implements FS.
func (f *Fake) DirExists(path string) bool {
	prefix := strings.TrimSuffix(filepath.ToSlash(path), "/") + "/"
	f.mu.Lock()
	defer f.mu.Unlock()
	for p := range f.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// EnumerateFiles implements FS.
func (f *Fake) EnumerateFiles(ctx context.Context, root, pattern string) ([]FileInfo, error) {
	prefix := strings.TrimSuffix(filepath.ToSlash(root), "/") + "/"

	f.mu.Lock()
	paths := make([]string, 0, len(f.files))
	for p := range f.files {
		paths = append(paths, p)
	}
	f.mu.Unlock()
	sort.Strings(paths)

	var files []FileInfo
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		name := p[strings.LastIndex(p, "/")+1:]
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}

		f.mu.Lock()
		ff := f.files[p]
		f.mu.Unlock()
		files = append(files, FileInfo{Path: p, Name: name, ModTime: ff.modTime})
	}

	return files, nil
}

// ReadAllText implements FS.
func (f *Fake) ReadAllText(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ff, ok := f.files[filepath.ToSlash(path)]
	if !ok {
		return "", fmt.Errorf("file not found: %s", path)
	}
	if ff.readErr != nil {
		return "", ff.readErr
	}
	return ff.content, nil
}

// LastWriteTime implements FS.
func (f *Fake) LastWriteTime(path string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ff, ok := f.files[filepath.ToSlash(path)]
	if !ok {
		return time.Time{}, fmt.Errorf("file not found: %s", path)
	}
	return ff.modTime, nil
}
