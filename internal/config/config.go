// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for todo-tui.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.todo-tui/config.toml
//   - ~/.todo-tui/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/jeranaias/todo-tui/internal/storage"
	"github.com/jeranaias/todo-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete todo-tui configuration.
type Config struct {
	Session SessionConfig `toml:"session" json:"session"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Audit   AuditConfig   `toml:"audit" json:"audit"`
}

// SessionConfig controls the inactivity timeout.
type SessionConfig struct {
	// InactivityTimeoutSecs is the whole idle budget (default: 1800)
	InactivityTimeoutSecs int `toml:"inactivity_timeout_secs" json:"inactivity_timeout_secs" env:"TODO_TUI_INACTIVITY_TIMEOUT_SECS"`
	// WarningSecs is the countdown at the end of the budget (default: 300)
	WarningSecs int `toml:"warning_secs" json:"warning_secs" env:"TODO_TUI_WARNING_SECS"`
	// ResumePolicy is "wall-clock" or "timer-count"
	ResumePolicy string `toml:"resume_policy" json:"resume_policy" env:"TODO_TUI_RESUME_POLICY"`
	// ActivityDebounceMs limits how often activity restarts the idle timer
	ActivityDebounceMs int `toml:"activity_debounce_ms" json:"activity_debounce_ms" env:"TODO_TUI_ACTIVITY_DEBOUNCE_MS"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	// Backend is "file", "sqlite", "redis" or "memory"
	Backend string `toml:"backend" json:"backend" env:"TODO_TUI_STORAGE_BACKEND"`
	// Path is the file or database path; empty uses the config directory
	Path        string `toml:"path" json:"path,omitempty" env:"TODO_TUI_STORAGE_PATH"`
	RedisAddr   string `toml:"redis_addr" json:"redis_addr" env:"TODO_TUI_REDIS_ADDR"`
	RedisPrefix string `toml:"redis_prefix" json:"redis_prefix" env:"TODO_TUI_REDIS_PREFIX"`
	// Seal encrypts stored values with a key derived from SealPassphrase
	Seal bool `toml:"seal" json:"seal" env:"TODO_TUI_STORAGE_SEAL"`

	// SealPassphrase is only ever read from the environment.
	SealPassphrase string `toml:"-" json:"-" env:"TODO_TUI_SEAL_PASSPHRASE"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Language is "en", "he" or "ar"
	Language string `toml:"language" json:"language" env:"TODO_TUI_LANG"`
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme" env:"TODO_TUI_THEME"`
	// Mouse enables mouse reporting so pointer movement counts as activity
	Mouse bool `toml:"mouse" json:"mouse" env:"TODO_TUI_MOUSE"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	Level string `toml:"level" json:"level" env:"TODO_TUI_LOG_LEVEL"`
	Path  string `toml:"path" json:"path,omitempty" env:"TODO_TUI_LOG_PATH"`
}

// AuditConfig controls the session audit trail.
type AuditConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" env:"TODO_TUI_AUDIT"`
	Path    string `toml:"path" json:"path,omitempty" env:"TODO_TUI_AUDIT_PATH"`

	// MaxSizeMB rotates the file once it reaches this size (0 = never)
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" env:"TODO_TUI_AUDIT_MAX_SIZE_MB"`
}

// Accepted values.
var (
	ResumePolicies = []string{"wall-clock", "timer-count"}
	Languages      = []string{"en", "he", "ar"}
	Themes         = []string{"dark", "light", "auto"}
	LogLevels      = []string{"debug", "info", "warn", "error"}
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			InactivityTimeoutSecs: 1800, // 30 minutes
			WarningSecs:           300,  // 5 minutes
			ResumePolicy:          "wall-clock",
			ActivityDebounceMs:    1000,
		},
		Storage: StorageConfig{
			Backend:     storage.BackendFile,
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: storage.DefaultRedisPrefix,
		},
		UI: UIConfig{
			Language: "en",
			Theme:    "dark",
			Mouse:    true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			Enabled:   true,
			MaxSizeMB: 10,
		},
	}
}

// InactivityTimeout returns the idle budget as a duration.
func (s SessionConfig) InactivityTimeout() time.Duration {
	return time.Duration(s.InactivityTimeoutSecs) * time.Second
}

// WarningDuration returns the countdown length as a duration.
func (s SessionConfig) WarningDuration() time.Duration {
	return time.Duration(s.WarningSecs) * time.Second
}

// ActivityDebounce returns the debounce window as a duration.
func (s SessionConfig) ActivityDebounce() time.Duration {
	return time.Duration(s.ActivityDebounceMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnv overrides the configuration directory.
const HomeEnv = "TODO_TUI_HOME"

// ConfigDir returns the todo-tui configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".todo-tui"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// StoragePath returns the configured storage path, or the default for the
// backend inside the config directory.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	switch c.Storage.Backend {
	case storage.BackendSQLite:
		return inConfigDir("session.db")
	default:
		return inConfigDir("session.json")
	}
}

// LogPath returns the diagnostic log path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	return inConfigDir("todo-tui.log")
}

// AuditPath returns the audit log path.
func (c *Config) AuditPath() (string, error) {
	if c.Audit.Path != "" {
		return c.Audit.Path, nil
	}
	return inConfigDir("audit.log")
}

// StorageOptions translates the storage section for storage.Open.
func (c *Config) StorageOptions() (storage.Options, error) {
	opts := storage.Options{
		Backend:     c.Storage.Backend,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
	if c.Storage.Backend == storage.BackendFile || c.Storage.Backend == storage.BackendSQLite {
		path, err := c.StoragePath()
		if err != nil {
			return opts, err
		}
		opts.Path = path
	}
	if c.Storage.Seal {
		if c.Storage.SealPassphrase == "" {
			return opts, errors.New("storage.seal is enabled but TODO_TUI_SEAL_PASSPHRASE is not set")
		}
		opts.SealPassphrase = c.Storage.SealPassphrase
	}
	return opts, nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that fails to parse is reported alongside the defaults so the
// caller can warn and keep going.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []struct {
		path func() (string, error)
		load func(*Config, string) error
		kind string
	}{
		{ConfigPathTOML, LoadTOML, "TOML"},
		{ConfigPathJSON, LoadJSON, "JSON"},
	} {
		path, err := candidate.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := candidate.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", candidate.kind, err)
			continue
		}
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies environment overrides, defaults and validation.
func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return err
	}
	if err := fillDefaults(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	// Session
	if cfg.Session.InactivityTimeoutSecs == 0 {
		cfg.Session.InactivityTimeoutSecs = defaults.Session.InactivityTimeoutSecs
	}
	if cfg.Session.WarningSecs == 0 {
		cfg.Session.WarningSecs = defaults.Session.WarningSecs
	}
	if cfg.Session.ResumePolicy == "" {
		cfg.Session.ResumePolicy = defaults.Session.ResumePolicy
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = defaults.Storage.RedisAddr
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = defaults.Storage.RedisPrefix
	}

	// UI
	if cfg.UI.Language == "" {
		cfg.UI.Language = defaults.UI.Language
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# todo-tui configuration file")
	fmt.Fprintln(&buf, "# Generated by todo-tui - edit with care")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# The seal passphrase is read from TODO_TUI_SEAL_PASSPHRASE, never from this file.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	s := c.Session
	if s.InactivityTimeoutSecs <= 0 {
		add("session.inactivity_timeout_secs", "must be positive, got %d", s.InactivityTimeoutSecs)
	}
	if s.WarningSecs <= 0 {
		add("session.warning_secs", "must be positive, got %d", s.WarningSecs)
	} else if s.WarningSecs >= s.InactivityTimeoutSecs {
		add("session.warning_secs", "must be less than inactivity_timeout_secs (%d), got %d",
			s.InactivityTimeoutSecs, s.WarningSecs)
	}
	if !slices.Contains(ResumePolicies, s.ResumePolicy) {
		add("session.resume_policy", "must be one of %s, got %q", strings.Join(ResumePolicies, ", "), s.ResumePolicy)
	}
	if s.ActivityDebounceMs < 0 {
		add("session.activity_debounce_ms", "must not be negative, got %d", s.ActivityDebounceMs)
	}

	if !slices.Contains(storage.Backends, c.Storage.Backend) {
		add("storage.backend", "must be one of %s, got %q", strings.Join(storage.Backends, ", "), c.Storage.Backend)
	}
	if c.Storage.Backend == storage.BackendRedis && c.Storage.RedisAddr == "" {
		add("storage.redis_addr", "is required for the redis backend")
	}

	if !slices.Contains(Languages, c.UI.Language) {
		add("ui.language", "must be one of %s, got %q", strings.Join(Languages, ", "), c.UI.Language)
	}
	if !slices.Contains(Themes, c.UI.Theme) {
		add("ui.theme", "must be one of %s, got %q", strings.Join(Themes, ", "), c.UI.Theme)
	}
	if c.Audit.MaxSizeMB < 0 {
		add("audit.max_size_mb", "must not be negative, got %d", c.Audit.MaxSizeMB)
	}
	if !slices.Contains(LogLevels, c.Log.Level) {
		add("log.level", "must be one of %s, got %q", strings.Join(LogLevels, ", "), c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies TODO_TUI_* environment variables on top of the
// loaded values. Unset variables leave fields untouched.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// =============================================================================
// MISC
// =============================================================================

// String returns the configuration as TOML for display.
// The seal passphrase is never part of the output.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
