package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from DefaultConfigPath, keeping defaults for
// anything missing. A missing or invalid file yields the defaults.
func Load() Config {
	return LoadFile(DefaultConfigPath())
}

// LoadFile loads configuration from path.
func LoadFile(path string) Config {
	cfg := DefaultConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	loaded := cfg
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg
	}
	if loaded.DataDir == "" {
		loaded.DataDir = cfg.DataDir
	}
	if loaded.Concurrency <= 0 {
		loaded.Concurrency = cfg.Concurrency
	}
	return loaded
}
