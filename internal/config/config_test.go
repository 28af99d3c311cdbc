package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultLibraryRoot(), cfg.Library.Root)
	assert.Equal(t, "", cfg.Storage.DataDir)
	assert.Equal(t, 64, cfg.Storage.SQLiteCacheMB)
	assert.Equal(t, SuggesterFTS5, cfg.Search.Suggester)
	assert.Equal(t, 20, cfg.Search.MaxSuggestions)
	assert.Equal(t, 512, cfg.Search.ColorCacheSize)
	assert.Equal(t, "2s", cfg.Watch.QuietPeriod)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.DataDir = "/data/promptloom"

	assert.Equal(t, filepath.Join("/data/promptloom", "DBs", "Tags.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/data/promptloom", "DBs", "Tags.lock"), cfg.LockPath())
	assert.Equal(t, filepath.Join("/data/promptloom", "DBs", "Suggest.bleve"), cfg.BleveIndexPath())
	assert.Equal(t, filepath.Join("/data/promptloom", "Config", "StopWords.json"), cfg.StopWordsPath())
	assert.Equal(t, filepath.Join("/data/promptloom", "Logs", "tagindex.log"), cfg.LogPath())
}

func TestConfig_DataDirFallsBackToPlatformDefault(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultDataDir(), cfg.DataDir())
	assert.Contains(t, cfg.DataDir(), "PromptLoom")
}

func TestConfig_LogPathHonorsOverride(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging.File = "/var/log/custom.log"
	assert.Equal(t, "/var/log/custom.log", cfg.LogPath())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	// Given: a config file in a relocated data dir
	dataDir := t.TempDir()
	cfgPath := ConfigPath(dataDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))

	yaml := `
version: 1
library:
  root: /home/u/Pictures/Library
search:
  suggester: bleve
  max_suggestions: 50
watch:
  quiet_period: 5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))
	t.Setenv("PROMPTLOOM_DATA_DIR", dataDir)

	// When: loading
	cfg, err := Load()
	require.NoError(t, err)

	// Then: file values win over defaults
	assert.Equal(t, "/home/u/Pictures/Library", cfg.Library.Root)
	assert.Equal(t, SuggesterBleve, cfg.Search.Suggester)
	assert.Equal(t, 50, cfg.Search.MaxSuggestions)
	assert.Equal(t, 5*time.Second, cfg.WatchQuietPeriod())
	assert.Equal(t, "debug", cfg.Logging.Level)

	// And: unset values keep defaults
	assert.Equal(t, 64, cfg.Storage.SQLiteCacheMB)
	assert.Equal(t, 512, cfg.Search.ColorCacheSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := ConfigPath(dataDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("library:\n  root: /from/file\n"), 0o644))

	t.Setenv("PROMPTLOOM_DATA_DIR", dataDir)
	t.Setenv("PROMPTLOOM_LIBRARY_ROOT", "/from/env")
	t.Setenv("PROMPTLOOM_SUGGESTER", "bleve")
	t.Setenv("PROMPTLOOM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Library.Root)
	assert.Equal(t, SuggesterBleve, cfg.Search.Suggester)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Setenv("PROMPTLOOM_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SuggesterFTS5, cfg.Search.Suggester)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := ConfigPath(dataDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("search: [not a map"), 0o644))
	t.Setenv("PROMPTLOOM_DATA_DIR", dataDir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty library root",
			mutate:  func(c *Config) { c.Library.Root = "" },
			wantErr: "library.root",
		},
		{
			name:    "unknown suggester",
			mutate:  func(c *Config) { c.Search.Suggester = "lucene" },
			wantErr: "search.suggester",
		},
		{
			name:    "negative max suggestions",
			mutate:  func(c *Config) { c.Search.MaxSuggestions = -1 },
			wantErr: "max_suggestions",
		},
		{
			name:    "zero color cache",
			mutate:  func(c *Config) { c.Search.ColorCacheSize = 0 },
			wantErr: "color_cache_size",
		},
		{
			name:    "garbage quiet period",
			mutate:  func(c *Config) { c.Watch.QuietPeriod = "soon" },
			wantErr: "quiet_period",
		},
		{
			name:    "too short quiet period",
			mutate:  func(c *Config) { c.Watch.QuietPeriod = "5ms" },
			wantErr: "at least 100ms",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWatchQuietPeriod_FallsBackOnGarbage(t *testing.T) {
	cfg := NewConfig()
	cfg.Watch.QuietPeriod = "bogus"
	assert.Equal(t, 2*time.Second, cfg.WatchQuietPeriod())

	cfg.Watch.QuietPeriod = "750ms"
	assert.Equal(t, 750*time.Millisecond, cfg.WatchQuietPeriod())
}

func TestWriteDefault_CreatesAndRefusesOverwrite(t *testing.T) {
	dataDir := t.TempDir()
	path := ConfigPath(dataDir)

	require.NoError(t, WriteDefault(path))

	// File parses back to defaults.
	cfg := NewConfig()
	require.NoError(t, cfg.loadYAML(path))
	assert.Equal(t, SuggesterFTS5, cfg.Search.Suggester)

	// Second write refuses.
	err := WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
