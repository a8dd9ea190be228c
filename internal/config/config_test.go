// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/todo-tui/internal/storage"
)

// isolate points the config directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Session.InactivityTimeoutSecs != 1800 {
		t.Errorf("InactivityTimeoutSecs = %d, want 1800", cfg.Session.InactivityTimeoutSecs)
	}
	if cfg.Session.WarningSecs != 300 {
		t.Errorf("WarningSecs = %d, want 300", cfg.Session.WarningSecs)
	}
	if cfg.Storage.Backend != storage.BackendFile {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, storage.BackendFile)
	}
	if cfg.UI.Language != "en" {
		t.Errorf("UI.Language = %q, want en", cfg.UI.Language)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSessionConfig_Durations(t *testing.T) {
	s := Default().Session
	assert.Equal(t, 30*time.Minute, s.InactivityTimeout())
	assert.Equal(t, 5*time.Minute, s.WarningDuration())
	assert.Equal(t, time.Second, s.ActivityDebounce())
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[session]
inactivity_timeout_secs = 900
warning_secs = 60
resume_policy = "timer-count"

[storage]
backend = "sqlite"

[ui]
language = "he"
mouse = false
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Session.InactivityTimeoutSecs)
	assert.Equal(t, 60, cfg.Session.WarningSecs)
	assert.Equal(t, "timer-count", cfg.Session.ResumePolicy)
	assert.Equal(t, 1000, cfg.Session.ActivityDebounceMs, "unset keys keep defaults")
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "he", cfg.UI.Language)
	assert.False(t, cfg.UI.Mouse)

	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session.db"), path)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"session":{"warning_secs":120}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Session.WarningSecs)
	assert.Equal(t, 1800, cfg.Session.InactivityTimeoutSecs)
}

func TestLoad_BrokenFileReturnsDefaultsAndError(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[session\n")

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 1800, cfg.Session.InactivityTimeoutSecs)
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[session]
inactivity_timeout_secs = 60
warning_secs = 120
`)

	_, err := Load()
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "session.warning_secs", verrs[0].Field)
}

func TestLoad_FixesPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0644))

	_, err := Load()
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TODO_TUI_WARNING_SECS", "90")
	t.Setenv("TODO_TUI_RESUME_POLICY", "timer-count")
	t.Setenv("TODO_TUI_STORAGE_BACKEND", "redis")
	t.Setenv("TODO_TUI_REDIS_ADDR", "cache:6379")
	t.Setenv("TODO_TUI_SEAL_PASSPHRASE", "hunter2")
	t.Setenv("TODO_TUI_MOUSE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Session.WarningSecs)
	assert.Equal(t, "timer-count", cfg.Session.ResumePolicy)
	assert.Equal(t, storage.BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "hunter2", cfg.Storage.SealPassphrase)
	assert.False(t, cfg.UI.Mouse)
}

func TestApplyEnvOverrides_BadValue(t *testing.T) {
	isolate(t)
	t.Setenv("TODO_TUI_WARNING_SECS", "soon")

	_, err := Load()
	assert.Error(t, err)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"zero timeout", func(c *Config) { c.Session.InactivityTimeoutSecs = 0 }, "session.inactivity_timeout_secs"},
		{"warning too long", func(c *Config) { c.Session.WarningSecs = 1800 }, "session.warning_secs"},
		{"negative warning", func(c *Config) { c.Session.WarningSecs = -1 }, "session.warning_secs"},
		{"bad policy", func(c *Config) { c.Session.ResumePolicy = "lazy" }, "session.resume_policy"},
		{"negative debounce", func(c *Config) { c.Session.ActivityDebounceMs = -5 }, "session.activity_debounce_ms"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"redis without addr", func(c *Config) {
			c.Storage.Backend = storage.BackendRedis
			c.Storage.RedisAddr = ""
		}, "storage.redis_addr"},
		{"bad language", func(c *Config) { c.UI.Language = "fr" }, "ui.language"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"negative audit size", func(c *Config) { c.Audit.MaxSizeMB = -1 }, "audit.max_size_mb"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mod(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tc.field, verrs[0].Field)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidateErrors_Empty(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidateErrors(nil).Error())
}

// =============================================================================
// PATHS AND STORAGE OPTIONS
// =============================================================================

func TestConfig_Paths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session.json"), path)

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "todo-tui.log"), logPath)

	auditPath, err := cfg.AuditPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audit.log"), auditPath)

	cfg.Storage.Path = "/srv/session.json"
	path, err = cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, "/srv/session.json", path)
}

func TestConfig_StorageOptions(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	opts, err := cfg.StorageOptions()
	require.NoError(t, err)
	assert.Equal(t, storage.BackendFile, opts.Backend)
	assert.Equal(t, filepath.Join(dir, "session.json"), opts.Path)
	assert.Empty(t, opts.SealPassphrase)

	cfg.Storage.Seal = true
	_, err = cfg.StorageOptions()
	assert.Error(t, err, "sealing without a passphrase")

	cfg.Storage.SealPassphrase = "pw"
	opts, err = cfg.StorageOptions()
	require.NoError(t, err)
	assert.Equal(t, "pw", opts.SealPassphrase)

	cfg.Storage.Backend = storage.BackendRedis
	opts, err = cfg.StorageOptions()
	require.NoError(t, err)
	assert.Empty(t, opts.Path)
	assert.Equal(t, "127.0.0.1:6379", opts.RedisAddr)
}

// =============================================================================
// SAVING
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Session.WarningSecs = 45
	cfg.UI.Language = "ar"
	cfg.Storage.SealPassphrase = "never-written"

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# todo-tui configuration file"))
	assert.NotContains(t, string(data), "never-written")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 45, loaded.Session.WarningSecs)
	assert.Equal(t, "ar", loaded.UI.Language)
	assert.Empty(t, loaded.Storage.SealPassphrase)
}

func TestSaveJSON_LoadFromPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.json")
	cfg := Default()
	cfg.Log.Level = "debug"

	require.NoError(t, SaveJSON(cfg, path))
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Log.Level)
}

func TestConfig_StringOmitsPassphrase(t *testing.T) {
	cfg := Default()
	cfg.Storage.SealPassphrase = "s3cret"
	out := cfg.String()
	assert.Contains(t, out, "inactivity_timeout_secs = 1800")
	assert.NotContains(t, out, "s3cret")
}
