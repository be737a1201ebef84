// Package config loads archtree configuration from .archtree/config.yaml,
// environment variables and CLI flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled enables recording backup runs to the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`

	// KeepRunsDays is the number of days to keep run history (0 = forever)
	KeepRunsDays int `yaml:"keep_runs_days"`
}

// Config represents archtree configuration options
type Config struct {
	// Output is the default archive path when none is given on the command line
	Output string `yaml:"output"`

	// SevenZipPath is the 7-Zip executable to invoke
	SevenZipPath string `yaml:"seven_zip_path"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// Verify enables post-backup archive verification
	Verify bool `yaml:"verify"`

	// Retry enables one retry of missing files after verification
	Retry bool `yaml:"retry"`

	// CheckFreshness enables timestamp freshness checking during verification
	CheckFreshness bool `yaml:"check_freshness"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultHistoryDBPath is the history database location used when no
// db_path is configured. Commands resolve it against the archtree home.
var DefaultHistoryDBPath = filepath.Join(".archtree", "history", "runs.db")

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Output:       "",
		SevenZipPath: "7z",
		LogLevel:     "info",
		LogDir:       filepath.Join(".archtree", "logs"),
		Verify:       false,
		Retry:        false,
		History: HistoryConfig{
			Enabled:      true,
			DBPath:       DefaultHistoryDBPath,
			KeepRunsDays: 90,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
// Environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge non-zero scalar values over the defaults
	if fileCfg.Output != "" {
		cfg.Output = fileCfg.Output
	}
	if fileCfg.SevenZipPath != "" {
		cfg.SevenZipPath = fileCfg.SevenZipPath
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}
	if fileCfg.Verify {
		cfg.Verify = true
	}
	if fileCfg.Retry {
		cfg.Retry = true
	}
	if fileCfg.CheckFreshness {
		cfg.CheckFreshness = true
	}

	// Booleans in the history section default to true, so presence of the
	// section has to be detected before its values can be trusted
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			historyMap, _ := historySection.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
			if _, exists := historyMap["keep_runs_days"]; exists {
				cfg.History.KeepRunsDays = fileCfg.History.KeepRunsDays
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfigFromDir loads configuration from .archtree/config.yaml in the
// specified directory. If the directory or file doesn't exist, returns
// default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".archtree", "config.yaml"))
}

// applyEnv overrides configuration values from environment variables.
// ARCHTREE_OUTPUT sets the default archive path and SEVEN_ZIP_PATH the
// 7-Zip executable.
func (c *Config) applyEnv() {
	if output := os.Getenv("ARCHTREE_OUTPUT"); output != "" {
		c.Output = output
	}
	if zipPath := os.Getenv("SEVEN_ZIP_PATH"); zipPath != "" {
		c.SevenZipPath = zipPath
	}
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values, so CLI flags take
// precedence over both the config file and environment variables.
func (c *Config) MergeWithFlags(output *string, sevenZipPath *string, verify *bool, retry *bool, checkFreshness *bool) {
	if output != nil {
		c.Output = *output
	}
	if sevenZipPath != nil {
		c.SevenZipPath = *sevenZipPath
	}
	if verify != nil {
		c.Verify = *verify
	}
	if retry != nil {
		c.Retry = *retry
	}
	if checkFreshness != nil {
		c.CheckFreshness = *checkFreshness
	}
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.SevenZipPath == "" {
		return fmt.Errorf("seven_zip_path cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// A retry pass re-verifies the archive, so retry without verify is a
	// configuration mistake
	if c.Retry && !c.Verify {
		return fmt.Errorf("retry requires verify to be enabled")
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepRunsDays < 0 {
			return fmt.Errorf("history.keep_runs_days must be >= 0, got %d", c.History.KeepRunsDays)
		}
	}

	return nil
}
