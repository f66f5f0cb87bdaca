package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load without config file: %v", err)
	}
	if cfg.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q", cfg.RepoRoot, dir)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("Workers default = %d, want 4", cfg.Analysis.Workers)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "human" {
		t.Errorf("logging defaults wrong: %+v", cfg.Logging)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	cfg := Default(dir)
	cfg.Analysis.MaxFiles = 250
	cfg.Analysis.ExcludePatterns = []string{"*.generated.js"}
	cfg.Output.CompressSnapshots = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, DepwikiDir, ConfigFile)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Analysis.MaxFiles != 250 {
		t.Errorf("MaxFiles = %d, want 250", loaded.Analysis.MaxFiles)
	}
	if len(loaded.Analysis.ExcludePatterns) != 1 || loaded.Analysis.ExcludePatterns[0] != "*.generated.js" {
		t.Errorf("ExcludePatterns = %v", loaded.Analysis.ExcludePatterns)
	}
	if !loaded.Output.CompressSnapshots {
		t.Errorf("CompressSnapshots not persisted")
	}
}
