// Package nebulaconfig loads and saves the node's JSON configuration file.
package nebulaconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nebula/internal/nebulalog"
)

// Config is the node's runtime configuration. It mirrors the original
// implementation's Config struct field-for-field.
type Config struct {
	ListenAddress string `json:"listen_address"`
	ListenPort    int    `json:"listen_port"`
	StorageDir    string `json:"storage_dir"`
	LogLevel      string `json:"log_level"`
	DaemonMode    bool   `json:"daemon_mode"`
	Verbose       bool   `json:"verbose"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		ListenAddress: "127.0.0.1",
		ListenPort:    9191,
		StorageDir:    filepath.Join(home, ".nebula"),
		LogLevel:      nebulalog.LevelInfo.String(),
		DaemonMode:    false,
		Verbose:       false,
	}
}

// LoadFromFile reads and parses a config file at path. A missing file is not
// an error; the caller receives Default() instead.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("nebulaconfig: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("nebulaconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToFile writes cfg to path as indented JSON, creating parent
// directories as needed.
func (c Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("nebulaconfig: creating parent dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("nebulaconfig: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("nebulaconfig: writing %s: %w", path, err)
	}
	return nil
}

// EnsureStorageDir creates c.StorageDir if it does not already exist.
func (c Config) EnsureStorageDir() error {
	if err := os.MkdirAll(c.StorageDir, 0o755); err != nil {
		return fmt.Errorf("nebulaconfig: creating storage dir %s: %w", c.StorageDir, err)
	}
	return nil
}

// LogLevelValue parses c.LogLevel into a nebulalog.Level.
func (c Config) LogLevelValue() nebulalog.Level {
	return nebulalog.ParseLevel(c.LogLevel)
}
