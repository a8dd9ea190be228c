// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command.
//
// Subcommands:
//
//	show (default)   Effective configuration, after env overrides
//	path             Where config, session, log and audit files live
//	init [--force] [--format toml|json]
//	                 Write a default config file
//
// The seal passphrase only ever comes from TODO_TUI_SEAL_PASSPHRASE and is
// never printed.

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/todo-tui/internal/config"
	"github.com/jeranaias/todo-tui/internal/storage"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(env, args)
	case "path":
		return handleConfigPath(env, args)
	case "init":
		return handleConfigInit(env, args)
	default:
		return &UsageError{
			Message: fmt.Sprintf("unknown config subcommand %q (valid: show, path, init)", args.Subcommand),
		}
	}
}

func handleConfigShow(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config show", env.Config).Write(env.Stdout)
	}
	fmt.Fprint(env.Stdout, env.Config.String())
	return nil
}

func handleConfigPath(env *Env, args Args) error {
	var (
		data ConfigPathData
		err  error
	)
	if data.Dir, err = config.ConfigDir(); err != nil {
		return err
	}
	if data.TOML, err = config.ConfigPathTOML(); err != nil {
		return err
	}
	if data.JSON, err = config.ConfigPathJSON(); err != nil {
		return err
	}
	if b := env.Config.Storage.Backend; b == storage.BackendFile || b == storage.BackendSQLite {
		if data.Storage, err = env.Config.StoragePath(); err != nil {
			return err
		}
	}
	if data.Log, err = env.Config.LogPath(); err != nil {
		return err
	}
	if data.AuditLog, err = env.Config.AuditPath(); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config path", data).Write(env.Stdout)
	}
	printField(env.Stdout, "Directory", data.Dir)
	printField(env.Stdout, "Config", data.TOML)
	if data.Storage != "" {
		printField(env.Stdout, "Session", data.Storage)
	}
	printField(env.Stdout, "Log", data.Log)
	printField(env.Stdout, "Audit log", data.AuditLog)
	if _, err := os.Stat(data.TOML); os.IsNotExist(err) {
		fmt.Fprintln(env.Stdout, DimStyle.Render("No config file yet (run: todo-tui config init)"))
	}
	return nil
}

func handleConfigInit(env *Env, args Args) error {
	var (
		path string
		save func(*config.Config, string) error
		err  error
	)
	switch format := args.Flags.FlagOrDefault("format", "toml"); format {
	case "toml":
		path, err = config.ConfigPathTOML()
		save = config.SaveTOML
	case "json":
		path, err = config.ConfigPathJSON()
		save = config.SaveJSON
	default:
		return NewValidationError("format", format, "must be toml or json")
	}
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !args.Flags.BoolFlag("force") {
		return &UsageError{Message: fmt.Sprintf("%s already exists (use --force to overwrite)", path)}
	}
	if err := save(config.Default(), path); err != nil {
		return err
	}
	if !args.Quiet {
		printOK(env.Stdout, "Wrote %s", path)
	}
	return nil
}
