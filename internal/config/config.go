// Package config defines the configuration type and defaults for absorb.
package config

// Config holds every option the core and the CLI recognize.
type Config struct {
	DryRun   bool   `yaml:"dry_run"`
	Force    bool   `yaml:"force"`
	Base     string `yaml:"base"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with every option at its safe default:
// no dry run, no force, no configured base (stack discovery from HEAD,
// bounded by the author-mismatch and depth heuristics), info-level logging.
func DefaultConfig() *Config {
	return &Config{
		DryRun:   false,
		Force:    false,
		Base:     "",
		LogLevel: "info",
	}
}
