package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileNames is the ordered list of config file names to search for
// in a repository's working directory.
var configFileNames = []string{
	".absorb.yml",
	".absorb.yaml",
}

// Discover returns the path of the first config file found in dir,
// following the standard search order. It returns an empty string if no
// config file is found.
func Discover(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and parses an absorb config file. If configPath is
// non-empty, that file is loaded directly. Otherwise, Load searches dir
// using Discover. If no config file is found, DefaultConfig is returned.
//
// Partial YAML files are supported: any fields not specified in the YAML
// retain their default values.
func Load(dir, configPath string) (*Config, error) {
	if configPath == "" {
		configPath = Discover(dir)
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// ApplyFlags overrides cfg's fields with CLI flag values where the flag
// was explicitly set; changed reports which keys were set by the caller
// so only those fields are overridden (a config file still wins for
// everything else).
func ApplyFlags(cfg *Config, dryRun, force bool, base, logLevel string, changed map[string]bool) {
	if changed["dry-run"] {
		cfg.DryRun = dryRun
	}
	if changed["force"] {
		cfg.Force = force
	}
	if changed["base"] {
		cfg.Base = base
	}
	if changed["log-level"] {
		cfg.LogLevel = logLevel
	}
}
