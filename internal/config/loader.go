package config

import (
	"os"
	"path/filepath"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the config file name inside the data directory.
const ConfigFileName = "config.yaml"

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'zbxdash init' to create one, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. $XDG_CONFIG_HOME/zbxdash/config.yaml (or ~/.config/zbxdash/config.yaml)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	def := filepath.Join(defaultDataDir(), ConfigFileName)
	if _, err := os.Stat(def); err == nil {
		return def, nil
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
// This lets every command work before 'zbxdash init' has ever been run.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Save writes the config as YAML to the given path, creating the
// parent directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create config directory",
			"Check permissions on "+filepath.Dir(path))
	}

	// Durations marshal as nanosecond integers by default; write the
	// human-readable form instead so the file stays hand-editable.
	data, err := yaml.Marshal(map[string]interface{}{
		"data_dir":             cfg.DataDir,
		"request_timeout":      cfg.RequestTimeout.String(),
		"insecure_skip_verify": cfg.InsecureSkipVerify,
		"color":                cfg.Color,
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot serialize config", "")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write config file",
			"Check permissions on "+path)
	}
	return nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}

	return cfg, nil
}

// setDefaults seeds viper so absent keys fall back instead of zeroing.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("insecure_skip_verify", false)
	v.SetDefault("color", "auto")
	v.SetEnvPrefix("ZBXDASH")
	v.AutomaticEnv()
}
