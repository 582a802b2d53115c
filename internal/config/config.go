package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds application-level settings for zbxdash.
// Per-server connection details live in the registry, not here.
type Config struct {
	// DataDir is where durable state (state.db) is kept.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// RequestTimeout bounds every call to a monitoring server.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Useful for self-signed Zabbix installations on a LAN.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`

	// Color controls colored CLI output: auto, always, never.
	Color string `mapstructure:"color" yaml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:        defaultDataDir(),
		RequestTimeout: 30 * time.Second,
		Color:          "auto",
	}
}

// StatePath returns the path of the sqlite state database.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// defaultDataDir prefers XDG_CONFIG_HOME, falling back to ~/.config.
func defaultDataDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".zbxdash"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "zbxdash")
}
