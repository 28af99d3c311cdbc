package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the CLI against a throwaway data dir and library,
// returning combined output.
func runCmd(t *testing.T, library, dataDir string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--library", library, "--data-dir", dataDir))

	err := root.Execute()
	return buf.String(), err
}

func writeLibrary(t *testing.T) string {
	t.Helper()
	library := t.TempDir()
	dir := filepath.Join(library, "Subjects")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "Old Wizard.txt"),
		[]byte("an old wizard in a tall tower\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "Brunette Dancer.txt"),
		[]byte("a dancer at the harbor\n"), 0o644))
	return library
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"--help"})

	err := root.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "sync")
	assert.Contains(t, out, "search")
	assert.Contains(t, out, "watch")
}

func TestRootCmd_UnknownCommandFails(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"frobnicate"})

	err := root.Execute()

	require.Error(t, err)
}

func TestSyncCmd_JSONReportsTotals(t *testing.T) {
	// Given: a small library
	library := writeLibrary(t)
	dataDir := t.TempDir()

	// When: syncing with --json
	out, err := runCmd(t, library, dataDir, "sync", "--json")

	// Then: the result is machine-readable with the indexed totals
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, float64(2), result["added_files"])
	assert.Equal(t, float64(2), result["total_files"])
	assert.Greater(t, result["total_tags"], float64(0))
}

func TestSearchCmd_FindsSyncedFiles(t *testing.T) {
	// Given: a synced library
	library := writeLibrary(t)
	dataDir := t.TempDir()
	_, err := runCmd(t, library, dataDir, "sync", "--json")
	require.NoError(t, err)

	// When: searching for a filename tag
	out, err := runCmd(t, library, dataDir, "search", "wizard")

	// Then: the matching file is listed with a relevance percent
	require.NoError(t, err)
	assert.Contains(t, out, "Old Wizard.txt")
	assert.Contains(t, out, "100%")
}

func TestSearchCmd_NoMatchesPrintsNotice(t *testing.T) {
	library := writeLibrary(t)
	dataDir := t.TempDir()
	_, err := runCmd(t, library, dataDir, "sync", "--json")
	require.NoError(t, err)

	out, err := runCmd(t, library, dataDir, "search", "nonexistent")

	require.NoError(t, err)
	assert.Contains(t, out, "No files match")
}

func TestSuggestCmd_CompletesPrefix(t *testing.T) {
	library := writeLibrary(t)
	dataDir := t.TempDir()
	_, err := runCmd(t, library, dataDir, "sync", "--json")
	require.NoError(t, err)

	out, err := runCmd(t, library, dataDir, "suggest", "wiz")

	require.NoError(t, err)
	assert.Contains(t, out, "wizard")
}

func TestStatusCmd_JSONCarriesCounts(t *testing.T) {
	library := writeLibrary(t)
	dataDir := t.TempDir()
	_, err := runCmd(t, library, dataDir, "sync", "--json")
	require.NoError(t, err)

	out, err := runCmd(t, library, dataDir, "status", "--json")

	require.NoError(t, err)
	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, float64(2), status["files"])
	assert.Equal(t, library, status["library_root"])
	assert.NotEmpty(t, status["last_scan"])
}

func TestTagsCmd_ListsWithCounts(t *testing.T) {
	library := writeLibrary(t)
	dataDir := t.TempDir()
	_, err := runCmd(t, library, dataDir, "sync", "--json")
	require.NoError(t, err)

	out, err := runCmd(t, library, dataDir, "tags")

	require.NoError(t, err)
	assert.Contains(t, out, "wizard")
	assert.Contains(t, out, "dancer")
}

func TestConfigPathCmd_PointsIntoDataDir(t *testing.T) {
	library := t.TempDir()
	dataDir := t.TempDir()

	out, err := runCmd(t, library, dataDir, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, dataDir)
	assert.Contains(t, out, "config.yaml")
}

func TestConfigInitCmd_WritesDefaultOnce(t *testing.T) {
	library := t.TempDir()
	dataDir := t.TempDir()

	_, err := runCmd(t, library, dataDir, "config", "init")
	require.NoError(t, err)

	// A second init without --force must refuse to overwrite.
	_, err = runCmd(t, library, dataDir, "config", "init")
	require.Error(t, err)

	// With --force the old file is backed up and replaced.
	out, err := runCmd(t, library, dataDir, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up")
}

func TestVersionCmd_PrintsBuildInfo(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"version"})

	err := root.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tagindex")
}
