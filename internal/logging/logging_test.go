package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultLogDir(t *testing.T) {
	dir := DefaultLogDir()
	if dir == "" {
		t.Error("DefaultLogDir returned empty string")
	}

	if !strings.Contains(dir, "PromptLoom") || !strings.Contains(dir, "Logs") {
		t.Errorf("DefaultLogDir should contain PromptLoom/Logs, got: %s", dir)
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	if filepath.Base(path) != "tagindex.log" {
		t.Errorf("DefaultLogPath should end with tagindex.log, got: %s", path)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("expected MaxSizeMB 10, got: %d", cfg.MaxSizeMB)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("expected MaxFiles 5, got: %d", cfg.MaxFiles)
	}
	if cfg.WriteToStderr {
		t.Error("expected WriteToStderr to be false by default")
	}
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()

	if cfg.Level != "debug" {
		t.Errorf("expected level 'debug', got: %s", cfg.Level)
	}
	if !cfg.WriteToStderr {
		t.Error("debug mode should mirror to stderr")
	}
}

func TestSetup_WritesJSONLines(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	cfg := Config{
		Level:     "debug",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  3,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("sync_started", "library_root", "/tmp/library", "total_files", 42)
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, line)
	}
	if entry["msg"] != "sync_started" {
		t.Errorf("expected msg sync_started, got: %v", entry["msg"])
	}
	if entry["library_root"] != "/tmp/library" {
		t.Errorf("expected library_root attr, got: %v", entry["library_root"])
	}
}

func TestSetup_CreatesMissingDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "nested", "deeper", "test.log")

	_, cleanup, err := Setup(Config{Level: "info", FilePath: logPath})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	cleanup()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file was not created in nested directory")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"nonsense", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input).String()
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDiscard_DropsEverything(t *testing.T) {
	logger := Discard()
	if logger == nil {
		t.Fatal("Discard returned nil")
	}
	// Must not panic.
	logger.Info("ignored", "k", "v")
	logger.Error("also ignored")
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "rotate.log")

	w, err := NewRotatingWriter(logPath, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	// Force rotation by writing past 1MB.
	chunk := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("expected rotated file .1 to exist")
	}

	rotated := RotatedFiles(logPath)
	if len(rotated) == 0 {
		t.Error("RotatedFiles found nothing")
	}
	if len(rotated) > 2 {
		t.Errorf("rotation should keep at most 2 files, found %d", len(rotated))
	}
}

func TestRotatingWriter_DefaultsOnZeroLimits(t *testing.T) {
	tmpDir := t.TempDir()
	w, err := NewRotatingWriter(filepath.Join(tmpDir, "d.log"), 0, 0)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	if w.maxSize != 10*1024*1024 {
		t.Errorf("expected default 10MB max size, got %d", w.maxSize)
	}
	if w.maxFiles != 5 {
		t.Errorf("expected default 5 max files, got %d", w.maxFiles)
	}
}
