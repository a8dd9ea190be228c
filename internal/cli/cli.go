// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing, usage and version for todo-tui.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdShell
	CmdToken
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:     "tui",
	CmdLogin:   "login",
	CmdLogout:  "logout",
	CmdStatus:  "status",
	CmdShell:   "shell",
	CmdToken:   "token",
	CmdConfig:  "config",
	CmdVersion: "version",
	CmdHelp:    "help",
}

// String returns the command name as typed.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool   // --json
	Quiet      bool   // -q, --quiet
	NoMouse    bool   // --no-mouse
	Language   string // --lang
	Theme      string // --theme
	Backend    string // --backend
	ConfigPath string // --config

	// Subcommand is the first positional after the command.
	Subcommand string

	// Flags holds the command-specific flags and positionals.
	Flags *ArgParser
}

// commandBools are command flags that never take a value.
var commandBools = []string{"force", "stdin"}

// Parse parses argv (without the program name) into a command and its args.
// No command means the TUI.
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if len(remaining) == 0 {
		args.Flags = NewArgParser(nil)
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	args.Flags = NewArgParser(remaining[1:], commandBools...)
	args.Subcommand = args.Flags.Subcommand()

	switch name {
	case "tui", "ui":
		return CmdTUI, args, nil
	case "login", "signin":
		return CmdLogin, args, nil
	case "logout", "signout":
		return CmdLogout, args, nil
	case "status", "s", "whoami":
		return CmdStatus, args, nil
	case "shell", "sh":
		return CmdShell, args, nil
	case "token":
		return CmdToken, args, nil
	case "config", "cfg":
		return CmdConfig, args, nil
	case "version", "-v", "--version":
		return CmdVersion, args, nil
	case "help", "-h", "--help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, &UsageError{
			Message:    fmt.Sprintf("unknown command %q", remaining[0]),
			Suggestion: SuggestCommand(name),
		}
	}
}

// Dispatch runs cmd against env.
func Dispatch(env *Env, cmd Command, args Args) error {
	switch cmd {
	case CmdTUI:
		return HandleTUI(env, args)
	case CmdLogin:
		return HandleLogin(env, args)
	case CmdLogout:
		return HandleLogout(env, args)
	case CmdStatus:
		return HandleStatus(env, args)
	case CmdShell:
		return HandleShell(env, args)
	case CmdToken:
		return HandleToken(env, args)
	case CmdConfig:
		return HandleConfig(env, args)
	case CmdVersion:
		return HandleVersion(env.Stdout, args)
	case CmdHelp:
		return HandleHelp(env.Stdout, env.TTY)
	default:
		return fmt.Errorf("unhandled command %s", cmd)
	}
}

// parseGlobalFlags extracts global flags from anywhere in argv.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	valueFlags := map[string]*string{
		"--lang":    &args.Language,
		"--theme":   &args.Theme,
		"--backend": &args.Backend,
		"--config":  &args.ConfigPath,
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "--json":
			args.JSON = true
			continue
		case "-q", "--quiet":
			args.Quiet = true
			continue
		case "--no-mouse":
			args.NoMouse = true
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		dst, ok := valueFlags[name]
		if !ok {
			remaining = append(remaining, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(argv) {
				return nil, args, &UsageError{Message: name + " requires a value"}
			}
			i++
			value = argv[i]
		}
		*dst = value
	}
	return remaining, args, nil
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `# todo-tui

Terminal client for the to-do service. You stay signed in while you work;
after a stretch of inactivity a countdown appears, and if nobody touches the
keyboard before it ends you are signed out.

## Usage

    todo-tui [global flags] [command] [flags]

## Commands

| Command | Description |
|---|---|
| ` + "`tui`" + ` | Full-screen interface (default) |
| ` + "`login --user ID --token T [--name N]`" + ` | Sign in without the interface |
| ` + "`logout`" + ` | Sign out and clear the stored session |
| ` + "`status`" + ` | Show who is signed in |
| ` + "`shell`" + ` | Line-mode prompt; every line counts as activity |
| ` + "`token --user ID [--name N] [--secret S] [--ttl 24h]`" + ` | Mint a development token |
| ` + "`config [show\\|path\\|init [--format json] [--force]]`" + ` | Inspect or create the config file |
| ` + "`version`" + ` | Print version information |

## Global flags

| Flag | Description |
|---|---|
| ` + "`--json`" + ` | Machine-readable output |
| ` + "`--lang CODE`" + ` | Interface language: en, he, ar |
| ` + "`--theme MODE`" + ` | dark, light or auto |
| ` + "`--backend NAME`" + ` | Session storage: file, sqlite, redis, memory |
| ` + "`--config FILE`" + ` | Read this config file (.toml or .json) |
| ` + "`--no-mouse`" + ` | Do not capture the mouse in the interface |
| ` + "`-q, --quiet`" + ` | Suppress informational output |

## Shell commands

` + "`status`" + `, ` + "`extend`" + `, ` + "`logout`" + `, ` + "`quit`" + `, ` + "`help`" + `. An empty line only
counts as activity.

## Environment

Settings in ` + "`~/.todo-tui/config.toml`" + ` can be overridden with ` + "`TODO_TUI_*`" + `
variables, for example ` + "`TODO_TUI_INACTIVITY_TIMEOUT_SECS=600`" + `.
` + "`TODO_TUI_HOME`" + ` moves the whole directory.
`

// HandleHelp writes the usage text, rendered as markdown on a terminal.
func HandleHelp(w io.Writer, tty bool) error {
	if !tty {
		_, err := io.WriteString(w, usageText)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		_, err = io.WriteString(w, usageText)
		return err
	}
	rendered, err := renderer.Render(usageText)
	if err != nil {
		rendered = usageText
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// HandleVersion writes version information.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	fmt.Fprintf(w, "todo-tui version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	return nil
}
