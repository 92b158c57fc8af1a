// Package config loads user settings for treq.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	httpclient "github.com/sadopc/treq/internal/protocol/http"
)

const appName = "treq"

// collectionsSubdir is where saved HTTP requests live below the data dir.
// Other resource kinds get their own sibling under v1/collection.
var collectionsSubdir = filepath.Join("v1", "collection", "http")

// Config holds the application configuration.
type Config struct {
	DataDir        string                `yaml:"data_dir"`
	DefaultTimeout time.Duration         `yaml:"default_timeout"`
	Proxy          string                `yaml:"proxy"`
	NoProxy        string                `yaml:"no_proxy"`
	TLS            httpclient.TLSOptions `yaml:"tls"`
	LogLevel       string                `yaml:"log_level"`
	LogFormat      string                `yaml:"log_format"`
	History        bool                  `yaml:"history"`
	Concurrency    int                   `yaml:"concurrency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		DefaultTimeout: 0,
		LogLevel:       "warn",
		LogFormat:      "text",
		History:        true,
		Concurrency:    4,
	}
}

// CollectionsDir returns the directory holding saved HTTP requests.
func (c Config) CollectionsDir() string {
	return filepath.Join(c.DataDir, collectionsSubdir)
}

// HistoryPath returns the path of the history database.
func (c Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// DefaultDataDir returns the per-user data directory following XDG on Linux
// and the platform conventions elsewhere.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName, "data")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(home, "AppData", "Local", appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath returns the location of config.yaml.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.yaml")
}
