// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for todo-tui.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - SessionConfig: Inactivity timeout, warning length and resume policy
//   - StorageConfig: Where the session is persisted
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TODO_TUI_*)
//   - ~/.todo-tui/config.toml
//   - ~/.todo-tui/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Session.InactivityTimeout()
package config
