// Package config loads and validates tagindex configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Config file (<dataDir>/Config/config.yaml)
//  3. Environment variables (PROMPTLOOM_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Suggester backend names accepted by Search.Suggester.
const (
	SuggesterFTS5  = "fts5"
	SuggesterBleve = "bleve"
)

// Config represents the complete tagindex configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Library LibraryConfig `yaml:"library" json:"library"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LibraryConfig locates the prompt library to index.
type LibraryConfig struct {
	// Root is the folder tree scanned for *.txt files.
	Root string `yaml:"root" json:"root"`
}

// StorageConfig configures the embedded database.
type StorageConfig struct {
	// DataDir overrides the application data root. Empty uses the
	// platform default (os.UserConfigDir()/PromptLoom).
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// SQLiteCacheMB is the SQLite page cache size in MB (default: 64).
	SQLiteCacheMB int `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
}

// SearchConfig configures the search service.
type SearchConfig struct {
	// Suggester selects the prefix-suggestion backend.
	// Options: "fts5" (default, inside Tags.db) or "bleve" (separate index).
	Suggester string `yaml:"suggester" json:"suggester"`

	// MaxSuggestions caps suggestion results when the caller passes no limit.
	MaxSuggestions int `yaml:"max_suggestions" json:"max_suggestions"`

	// ColorCacheSize is the LRU capacity for derived color lookups.
	ColorCacheSize int `yaml:"color_cache_size" json:"color_cache_size"`
}

// WatchConfig configures library watch mode.
type WatchConfig struct {
	// QuietPeriod is how long the library must stay quiet before a
	// triggered sync runs (e.g. "2s").
	QuietPeriod string `yaml:"quiet_period" json:"quiet_period"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// File overrides the log file path. Empty uses <dataDir>/Logs/tagindex.log.
	File string `yaml:"file" json:"file"`
	// Stderr mirrors log output to stderr.
	Stderr bool `yaml:"stderr" json:"stderr"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Library: LibraryConfig{
			Root: DefaultLibraryRoot(),
		},
		Storage: StorageConfig{
			DataDir:       "",
			SQLiteCacheMB: 64,
		},
		Search: SearchConfig{
			Suggester:      SuggesterFTS5,
			MaxSuggestions: 20,
			ColorCacheSize: 512,
		},
		Watch: WatchConfig{
			QuietPeriod: "2s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDataDir returns the platform application-data root for PromptLoom.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "PromptLoom")
}

// DefaultLibraryRoot returns the default prompt library location.
func DefaultLibraryRoot() string {
	return filepath.Join(DefaultDataDir(), "Library")
}

// DataDir resolves the effective application data root.
func (c *Config) DataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DefaultDataDir()
}

// DatabasePath returns the tag database location under the data root.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir(), "DBs", "Tags.db")
}

// LockPath returns the cross-process sync lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir(), "DBs", "Tags.lock")
}

// BleveIndexPath returns the bleve suggestion index location.
func (c *Config) BleveIndexPath() string {
	return filepath.Join(c.DataDir(), "DBs", "Suggest.bleve")
}

// StopWordsPath returns the stop-word JSON document location.
func (c *Config) StopWordsPath() string {
	return filepath.Join(c.DataDir(), "Config", "StopWords.json")
}

// ConfigPath returns the YAML config file location under dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "Config", "config.yaml")
}

// LogPath resolves the effective log file path.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.DataDir(), "Logs", "tagindex.log")
}

// WatchQuietPeriod parses the configured quiet period, falling back to 2s.
func (c *Config) WatchQuietPeriod() time.Duration {
	d, err := time.ParseDuration(c.Watch.QuietPeriod)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Load loads configuration. The file is looked up under the data root
// (which env vars may relocate); a missing file is fine and yields the
// defaults plus env overrides.
func Load() (*Config, error) {
	cfg := NewConfig()

	// The data dir env override must apply before the file lookup so a
	// relocated data dir brings its config file with it.
	if v := os.Getenv("PROMPTLOOM_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	path := ConfigPath(cfg.DataDir())
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Library.Root != "" {
		c.Library.Root = other.Library.Root
	}
	if other.Storage.DataDir != "" {
		c.Storage.DataDir = other.Storage.DataDir
	}
	if other.Storage.SQLiteCacheMB != 0 {
		c.Storage.SQLiteCacheMB = other.Storage.SQLiteCacheMB
	}
	if other.Search.Suggester != "" {
		c.Search.Suggester = other.Search.Suggester
	}
	if other.Search.MaxSuggestions != 0 {
		c.Search.MaxSuggestions = other.Search.MaxSuggestions
	}
	if other.Search.ColorCacheSize != 0 {
		c.Search.ColorCacheSize = other.Search.ColorCacheSize
	}
	if other.Watch.QuietPeriod != "" {
		c.Watch.QuietPeriod = other.Watch.QuietPeriod
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.Stderr {
		c.Logging.Stderr = true
	}
}

// applyEnvOverrides applies PROMPTLOOM_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROMPTLOOM_LIBRARY_ROOT"); v != "" {
		c.Library.Root = v
	}
	if v := os.Getenv("PROMPTLOOM_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PROMPTLOOM_SUGGESTER"); v != "" {
		c.Search.Suggester = v
	}
	if v := os.Getenv("PROMPTLOOM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PROMPTLOOM_WATCH_QUIET"); v != "" {
		c.Watch.QuietPeriod = v
	}
}

// Validate checks the final configuration for consistency.
func (c *Config) Validate() error {
	if c.Library.Root == "" {
		return fmt.Errorf("library.root must not be empty")
	}

	switch c.Search.Suggester {
	case SuggesterFTS5, SuggesterBleve:
	default:
		return fmt.Errorf("search.suggester must be %q or %q, got %q",
			SuggesterFTS5, SuggesterBleve, c.Search.Suggester)
	}

	if c.Search.MaxSuggestions < 0 {
		return fmt.Errorf("search.max_suggestions must not be negative, got %d", c.Search.MaxSuggestions)
	}
	if c.Search.ColorCacheSize <= 0 {
		return fmt.Errorf("search.color_cache_size must be positive, got %d", c.Search.ColorCacheSize)
	}
	if c.Storage.SQLiteCacheMB <= 0 {
		return fmt.Errorf("storage.sqlite_cache_mb must be positive, got %d", c.Storage.SQLiteCacheMB)
	}

	if c.Watch.QuietPeriod != "" {
		d, err := time.ParseDuration(c.Watch.QuietPeriod)
		if err != nil {
			return fmt.Errorf("watch.quiet_period is not a duration: %w", err)
		}
		if d < 100*time.Millisecond {
			return fmt.Errorf("watch.quiet_period must be at least 100ms, got %s", d)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}

	return nil
}

// WriteDefault writes the default configuration YAML to path, creating
// parent directories. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(NewConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
