// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the commands of todo-tui.
//
// Every command runs against an Env (streams, config, clock) and opens a
// Runtime: the storage backend, session store, scheduler, activity monitor
// and audit recorder wired together the same way for the full-screen
// interface and the scripted commands.
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	env := cli.NewEnv(cfg)
//	switch cmd {
//	case cli.CmdTUI:
//	    err = cli.HandleTUI(env, args)
//	case cli.CmdLogin:
//	    err = cli.HandleLogin(env, args)
//	// ... other commands
//	}
//	os.Exit(cli.GetExitCode(err))
//
// # Commands
//
//   - (none), tui: Full-screen interface
//   - login, logout, status: Session management for scripts
//   - shell: Line-mode session for terminals without full-screen support
//   - token: Development token minting
//   - config: show, path, init
//   - version, help
//
// All commands accept --json for machine-readable output.
package cli
