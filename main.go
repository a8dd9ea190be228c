// todo-tui - Terminal client for the to-do service with inactivity sign-out.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/todo-tui/internal/cli"
	"github.com/jeranaias/todo-tui/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		if cmd == cli.CmdHelp && !args.JSON {
			fmt.Fprintln(os.Stderr, "Run 'todo-tui help' for usage.")
		}
		return cli.GetExitCode(err)
	}

	cfg, err := loadConfig(args.ConfigPath)
	if cfg == nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.ExitConfigError
	}
	if err != nil && !args.Quiet {
		// A broken file falls back to defaults; keep going.
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", cli.WarningStyle.Render("[!]"), err)
	}

	env := cli.NewEnv(cfg)
	if err := env.ApplyArgs(args); err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}

	if err := cli.Dispatch(env, cmd, args); err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig reads an explicit --config file strictly, or the default
// locations leniently.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
