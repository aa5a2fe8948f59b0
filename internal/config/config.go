// Package config provides configuration for claude-guard.
// Configuration is resolved from (highest to lowest priority):
// 1. The --config flag
// 2. Environment variables (CLAUDE_GUARD_*)
// 3. Home config (~/.config/claude-guard/config.yaml, or $CLAUDE_GUARD_CONFIG)
// 4. Defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration file that could not be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all claude-guard configuration.
type Config struct {
	// Limits are the size and count thresholds used by the guard rules.
	Limits Limits `yaml:"limits"`

	// ProtectedFiles are extra glob patterns added to the built-in list.
	ProtectedFiles []string `yaml:"protected_files"`

	// ProtectedBranches replaces the default set of branches that should not
	// be edited on directly.
	ProtectedBranches []string `yaml:"protected_branches"`

	// DisabledRules are rule names removed from every pipeline.
	DisabledRules []string `yaml:"disabled_rules"`

	// ToolTimeout bounds every external diagnostic (formatters, type checkers, git).
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	// NotifyTimeout bounds the desktop notification subprocess.
	NotifyTimeout time.Duration `yaml:"notify_timeout"`

	// LogDir holds decisions.log. Default: ~/.config/claude-guard
	LogDir string `yaml:"log_dir"`

	// SessionLogDir holds the dated tool-usage logs. Default: ~/.claude/logs
	SessionLogDir string `yaml:"session_log_dir"`

	// LogLevel is a zerolog level name (debug, info, warn, error, disabled).
	LogLevel string `yaml:"log_level"`
}

// Limits holds rule thresholds. Sizes are in bytes.
type Limits struct {
	BlockWriteBytes    int `yaml:"block_write_bytes"`
	WarnWriteBytes     int `yaml:"warn_write_bytes"`
	WarnEditBytes      int `yaml:"warn_edit_bytes"`
	BinaryMinBytes     int `yaml:"binary_min_bytes"`
	BinarySampleBytes  int `yaml:"binary_sample_bytes"`
	BinaryRatioPercent int `yaml:"binary_ratio_percent"`
	DirtyTreeThreshold int `yaml:"dirty_tree_threshold"`
	CommitSubjectMax   int `yaml:"commit_subject_max"`
}

// DefaultLimits returns the built-in thresholds.
func DefaultLimits() Limits {
	return Limits{
		BlockWriteBytes:    1 << 20,
		WarnWriteBytes:     100 << 10,
		WarnEditBytes:      50 << 10,
		BinaryMinBytes:     1000,
		BinarySampleBytes:  4096,
		BinaryRatioPercent: 20,
		DirtyTreeThreshold: 20,
		CommitSubjectMax:   72,
	}
}

// DefaultProtectedBranches are the long-lived branch names.
var DefaultProtectedBranches = []string{"main", "master", "production", "prod", "release", "develop"}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Limits:            DefaultLimits(),
		ProtectedBranches: append([]string(nil), DefaultProtectedBranches...),
		ToolTimeout:       30 * time.Second,
		NotifyTimeout:     5 * time.Second,
		LogDir:            filepath.Join(homeDir, ".config", "claude-guard"),
		SessionLogDir:     filepath.Join(homeDir, ".claude", "logs"),
		LogLevel:          "info",
	}
}

// Load resolves configuration. flagPath, when non-empty, names a file that
// must exist. On error the returned Config is still usable: it holds the
// defaults with environment overrides applied.
func Load(flagPath string) (*Config, error) {
	cfg := Default()
	if err := loadFromPath(cfg, homeConfigPath(), false); err != nil {
		return applyEnv(Default()), err
	}
	cfg = applyEnv(cfg)
	if err := loadFromPath(cfg, flagPath, true); err != nil {
		return applyEnv(Default()), err
	}
	if err := cfg.Validate(); err != nil {
		return applyEnv(Default()), err
	}
	return cfg, nil
}

// Disabled reports whether the kill switch is set.
func Disabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CLAUDE_GUARD_DISABLED"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Validate rejects thresholds that would make the rules meaningless.
func (c *Config) Validate() error {
	l := c.Limits
	switch {
	case l.BlockWriteBytes <= 0, l.WarnWriteBytes <= 0, l.WarnEditBytes <= 0:
		return fmt.Errorf("%w: size limits must be positive", ErrInvalid)
	case l.WarnWriteBytes > l.BlockWriteBytes:
		return fmt.Errorf("%w: warn_write_bytes exceeds block_write_bytes", ErrInvalid)
	case l.BinarySampleBytes <= 0:
		return fmt.Errorf("%w: binary_sample_bytes must be positive", ErrInvalid)
	case l.BinaryRatioPercent < 0 || l.BinaryRatioPercent > 100:
		return fmt.Errorf("%w: binary_ratio_percent must be within 0-100", ErrInvalid)
	case c.ToolTimeout <= 0 || c.NotifyTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalid)
	}
	return nil
}

// homeConfigPath returns the implicit config path.
func homeConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("CLAUDE_GUARD_CONFIG")); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "claude-guard", "config.yaml")
}

// loadFromPath decodes the YAML file at path over cfg. Keys absent from the
// file keep their current values.
func loadFromPath(cfg *Config, path string, required bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %w", ErrInvalid, path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	return nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("CLAUDE_GUARD_TOOL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ToolTimeout = d
		}
	}
	if v := os.Getenv("CLAUDE_GUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CLAUDE_GUARD_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	return cfg
}
