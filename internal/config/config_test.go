package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every implicit lookup at an empty temp home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CLAUDE_GUARD_CONFIG", "")
	t.Setenv("CLAUDE_GUARD_TOOL_TIMEOUT", "")
	t.Setenv("CLAUDE_GUARD_LOG_LEVEL", "")
	t.Setenv("CLAUDE_GUARD_LOG_DIR", "")
	return home
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Limits.BlockWriteBytes != 1048576 {
		t.Errorf("Default BlockWriteBytes = %d, want %d", cfg.Limits.BlockWriteBytes, 1048576)
	}
	if cfg.Limits.WarnWriteBytes != 102400 {
		t.Errorf("Default WarnWriteBytes = %d, want %d", cfg.Limits.WarnWriteBytes, 102400)
	}
	if cfg.Limits.WarnEditBytes != 51200 {
		t.Errorf("Default WarnEditBytes = %d, want %d", cfg.Limits.WarnEditBytes, 51200)
	}
	if cfg.ToolTimeout != 30*time.Second {
		t.Errorf("Default ToolTimeout = %s, want 30s", cfg.ToolTimeout)
	}
	assert.Equal(t, DefaultProtectedBranches, cfg.ProtectedBranches)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultBranchesAreCopied(t *testing.T) {
	cfg := Default()
	cfg.ProtectedBranches[0] = "trunk"
	assert.Equal(t, "main", DefaultProtectedBranches[0])
}

func TestLoadWithoutFiles(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "claude-guard"), cfg.LogDir)
	assert.Equal(t, filepath.Join(home, ".claude", "logs"), cfg.SessionLogDir)
}

func TestLoadHomeConfig(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "claude-guard", "config.yaml"), `
limits:
  warn_write_bytes: 2048
protected_files:
  - "**/*.sqlite"
disabled_rules: [format-on-save]
tool_timeout: 10s
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.Limits.WarnWriteBytes)
	assert.Equal(t, 1<<20, cfg.Limits.BlockWriteBytes, "unset keys keep defaults")
	assert.Equal(t, []string{"**/*.sqlite"}, cfg.ProtectedFiles)
	assert.Equal(t, []string{"format-on-save"}, cfg.DisabledRules)
	assert.Equal(t, 10*time.Second, cfg.ToolTimeout)
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "claude-guard", "config.yaml"), "log_level: warn\ntool_timeout: 10s\n")
	flagPath := filepath.Join(t.TempDir(), "flag.yaml")
	writeConfig(t, flagPath, "log_level: error\n")
	t.Setenv("CLAUDE_GUARD_TOOL_TIMEOUT", "3s")

	cfg, err := Load(flagPath)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ToolTimeout)
}

func TestFlagFileOverridesEnv(t *testing.T) {
	isolate(t)
	flagPath := filepath.Join(t.TempDir(), "flag.yaml")
	writeConfig(t, flagPath, "tool_timeout: 10s\n")
	t.Setenv("CLAUDE_GUARD_TOOL_TIMEOUT", "5s")
	t.Setenv("CLAUDE_GUARD_LOG_LEVEL", "debug")

	cfg, err := Load(flagPath)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.ToolTimeout)
	assert.Equal(t, "debug", cfg.LogLevel, "env still applies to keys the flag file leaves unset")
}

func TestLoadConfigEnvPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeConfig(t, path, "protected_branches: [trunk]\n")
	t.Setenv("CLAUDE_GUARD_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"trunk"}, cfg.ProtectedBranches)
}

func TestLoadInvalidFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "limits: [oops"},
		{"unknown key", "limitz:\n  warn_write_bytes: 1\n"},
		{"negative size", "limits:\n  block_write_bytes: -1\n"},
		{"warn above block", "limits:\n  warn_write_bytes: 5000000\n"},
		{"bad duration", "tool_timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			writeConfig(t, filepath.Join(home, ".config", "claude-guard", "config.yaml"), tt.body)
			t.Setenv("CLAUDE_GUARD_LOG_LEVEL", "debug")

			cfg, err := Load("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			require.NotNil(t, cfg)
			assert.Equal(t, DefaultLimits(), cfg.Limits)
			assert.Equal(t, "debug", cfg.LogLevel, "env overrides survive the fallback")
		})
	}
}

func TestLoadMissingFlagFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestDisabled(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes "} {
		t.Setenv("CLAUDE_GUARD_DISABLED", v)
		assert.True(t, Disabled(), v)
	}
	for _, v := range []string{"", "0", "false"} {
		t.Setenv("CLAUDE_GUARD_DISABLED", v)
		assert.False(t, Disabled(), v)
	}
}
