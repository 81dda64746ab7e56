package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config represents the scanner configuration
type Config struct {
	// Scan settings
	Path         string   `mapstructure:"path"`          // root to scan
	Workers      int      `mapstructure:"workers"`       // number of worker goroutines
	Exclude      []string `mapstructure:"exclude"`       // names, prefixes or globs to skip
	HashMaxSize  string   `mapstructure:"hash_max_size"` // content hashing ceiling, e.g. "1M"
	NoHash       bool     `mapstructure:"no_hash"`       // disable content hashing
	ProbeBytes   int      `mapstructure:"probe_bytes"`   // bytes read for content signatures
	ProbeTimeout int      `mapstructure:"probe_timeout"` // per-entry read timeout (ms)
	RulesFile    string   `mapstructure:"rules_file"`    // optional rule table override

	// Snapshot settings
	SnapshotDir string `mapstructure:"snapshot_dir"` // where frozen snapshots live
	PriorPath   string `mapstructure:"prior"`        // explicit snapshot to diff against
	DryRun      bool   `mapstructure:"dry_run"`      // diff without freezing

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // console, json, text, md
	OutputFile   string `mapstructure:"output_file"`   // output file path
}

// DefaultExclude is the directory list skipped unless overridden.
var DefaultExclude = []string{
	".git", ".hg", ".svn",
	"node_modules",
	"__pycache__", ".mypy_cache", ".pytest_cache", ".ruff_cache",
	".venv",
	".treescout",
}

// LoadConfig loads configuration from an optional treescout.yaml, environment
// variables and defaults
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("workers", runtime.NumCPU()*2)
	v.SetDefault("exclude", DefaultExclude)
	v.SetDefault("hash_max_size", "1M")
	v.SetDefault("no_hash", false)
	v.SetDefault("probe_bytes", 512)
	v.SetDefault("probe_timeout", 2000)
	v.SetDefault("rules_file", "")
	v.SetDefault("snapshot_dir", ".treescout/snapshots")
	v.SetDefault("prior", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("report_format", "")

	v.SetConfigName("treescout")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Only locations come from the environment
	v.SetEnvPrefix("TREESCOUT")
	if err := v.BindEnv("path"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("snapshot_dir"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a scan
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got: %d)", c.Workers)
	}
	if c.ProbeBytes < 0 {
		return fmt.Errorf("probe_bytes must not be negative (got: %d)", c.ProbeBytes)
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe_timeout must not be negative (got: %d)", c.ProbeTimeout)
	}
	if c.HashMaxSize != "" {
		if _, err := ParseSize(c.HashMaxSize); err != nil {
			return fmt.Errorf("hash_max_size: %w", err)
		}
	}
	if !IsValidReportFormat(c.ReportFormat) {
		return fmt.Errorf("report_format must be one of: %v (got: %s)", ReportFormats, c.ReportFormat)
	}
	return nil
}

// ReportFormats lists accepted report formats; empty means console.
var ReportFormats = []string{"console", "json", "text", "txt", "md", "markdown"}

// IsValidReportFormat reports whether f names a known report format
func IsValidReportFormat(f string) bool {
	if f == "" {
		return true
	}
	for _, known := range ReportFormats {
		if f == known {
			return true
		}
	}
	return false
}

// HashLimit returns the hashing ceiling in bytes; -1 disables hashing
func (c *Config) HashLimit() int64 {
	if c.NoHash {
		return -1
	}
	if c.HashMaxSize == "" {
		return -1
	}
	size, err := ParseSize(c.HashMaxSize)
	if err != nil {
		return -1
	}
	return size
}

// ProbeDeadline returns the per-entry read timeout
func (c *Config) ProbeDeadline() time.Duration {
	return time.Duration(c.ProbeTimeout) * time.Millisecond
}

// GetWorkers returns the configured worker count, falling back to CPU cores * 2
func (c *Config) GetWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU() * 2
	}
	return c.Workers
}
