package nebulaconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ListenPort != 9191 {
		t.Errorf("expected default port 9191, got %d", cfg.ListenPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.StorageDir == "" {
		t.Errorf("expected non-empty default storage dir")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("expected missing file to fall back to defaults, got error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected default config for missing file")
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.ListenPort = 7000
	cfg.Verbose = true
	cfg.LogLevel = "debug"

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != cfg {
		t.Errorf("roundtrip mismatch: got %+v want %+v", got, cfg)
	}
}

func TestLoadFromFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Errorf("expected error for corrupt config file")
	}
}

func TestEnsureStorageDir(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.StorageDir = filepath.Join(dir, "nested", "storage")

	if err := cfg.EnsureStorageDir(); err != nil {
		t.Fatalf("ensure storage dir: %v", err)
	}
	info, err := os.Stat(cfg.StorageDir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("expected storage dir to exist")
	}
}
