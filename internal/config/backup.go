package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxBackups is the maximum number of config backups to keep.
	MaxBackups = 3

	// BackupSuffix is the file extension for backup files.
	BackupSuffix = ".bak"
)

// BackupConfig creates a timestamped backup of the config file under
// dataDir and returns the backup path. A missing config file is not an
// error; the returned path is empty.
func BackupConfig(dataDir string) (string, error) {
	configPath := ConfigPath(dataDir)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read config for backup: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, timestamp)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write config backup: %w", err)
	}

	// Pruning is best-effort; the backup itself already succeeded.
	_ = pruneBackups(dataDir)

	return backupPath, nil
}

// ListBackups returns the config backups under dataDir, newest first.
func ListBackups(dataDir string) ([]string, error) {
	configPath := ConfigPath(dataDir)
	configDir := filepath.Dir(configPath)

	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list config directory: %w", err)
	}

	prefix := filepath.Base(configPath) + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(configDir, entry.Name()))
		}
	}

	// The timestamp is the filename suffix, so lexical order is age order.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	return backups, nil
}

// RestoreConfig replaces the config file under dataDir with a backup.
// The current config, if any, is backed up first.
func RestoreConfig(dataDir, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if _, err := BackupConfig(dataDir); err != nil {
		return fmt.Errorf("backup current config before restore: %w", err)
	}

	configPath := ConfigPath(dataDir)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write restored config: %w", err)
	}
	return nil
}

func pruneBackups(dataDir string) error {
	backups, err := ListBackups(dataDir)
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackups {
		return nil
	}
	for _, backup := range backups[MaxBackups:] {
		_ = os.Remove(backup)
	}
	return nil
}
