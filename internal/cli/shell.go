// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// shell.go - Line-mode session for terminals where the full-screen
// interface is unavailable (serial consoles, screen readers, dumb terms).
//
// Every entered line counts as a key press, so simply pressing enter keeps
// the session alive. Countdown notices are printed between prompts.

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/todo-tui/internal/activity"
	"github.com/jeranaias/todo-tui/internal/config"
	"github.com/jeranaias/todo-tui/internal/lifecycle"
	"github.com/jeranaias/todo-tui/internal/session"
)

const shellPrompt = "todo> "

const shellHelp = `Commands:
  status   Show the session and time left
  extend   Dismiss a countdown and restart the idle timer
  logout   Sign out and leave
  quit     Leave, staying signed in
  help     This text
An empty line only counts as activity.`

// lineReader is the part of *liner.State the shell uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// lockedWriter serializes writes from the prompt loop and from scheduler
// callbacks running on timer goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// =============================================================================
// SHELL COMMAND
// =============================================================================

// HandleShell runs the line-mode session on the terminal.
func HandleShell(env *Env, args Args) error {
	rt, err := env.Open()
	if err != nil {
		return err
	}
	defer rt.Close()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	historyFile := shellHistoryPath()
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		saveShellHistory(line, historyFile, rt.Logger)
		line.Close()
	}()

	return runShell(env, rt, line)
}

func shellHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shell_history")
}

func saveShellHistory(line *liner.State, path string, logger *zap.Logger) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		logger.Debug("shell history not saved", zap.Error(err))
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// runShell drives the prompt loop until quit, logout, end of input or
// expiry. The persisted session must exist beforehand.
func runShell(env *Env, rt *Runtime, in lineReader) error {
	if !rt.Scheduler.Start() {
		return ErrNotSignedIn
	}
	st := rt.Scheduler.Status()
	rt.Recorder.Start(rt.Clock.Now(), st.Episode, st.UserID, true)

	out := &lockedWriter{w: env.Stdout}
	var expired atomic.Bool
	idleLimit := rt.Scheduler.Config().InactivityTimeout

	unsubscribe := rt.Scheduler.Subscribe(func(ev lifecycle.Event) {
		switch ev.Kind {
		case lifecycle.WarningShown:
			printWarn(out, "Inactive session: signing out in %s. Press enter to stay signed in.",
				countdownText(ev.SecondsRemaining))
		case lifecycle.CountdownTick:
			if announceTick(ev.SecondsRemaining) {
				printWarn(out, "Signing out in %s", countdownText(ev.SecondsRemaining))
			}
		case lifecycle.SessionExtended:
			printOK(out, "Session extended")
		case lifecycle.SessionExpired:
			expired.Store(true)
			fmt.Fprintf(out, "\n%s Signed out after %s of inactivity.\n",
				ErrorStyle.Render("[X]"), session.FormatDuration(idleLimit))
		}
	})
	defer unsubscribe()

	printOK(out, "Signed in as %s. Type help for commands.", st.DisplayName)

	for {
		input, err := in.Prompt(shellPrompt)
		if expired.Load() {
			return nil
		}
		if err != nil {
			// End of input or ctrl+c: leave and keep the session.
			fmt.Fprintln(out)
			return nil
		}
		rt.Monitor.Notify(activity.Signal{Kind: activity.KeyPress})

		cmd := strings.ToLower(strings.TrimSpace(input))
		if cmd != "" {
			in.AppendHistory(strings.TrimSpace(input))
		}
		switch cmd {
		case "":
		case "status", "s":
			printShellStatus(out, rt.Scheduler.Status())
		case "extend", "e":
			rt.Scheduler.Extend()
			printShellStatus(out, rt.Scheduler.Status())
		case "logout":
			if user, ok := rt.Logout(endReasonLogout); ok {
				printOK(out, "Signed out %s", user)
			}
			return nil
		case "quit", "exit", "q":
			return nil
		case "help", "?", "h":
			fmt.Fprintln(out, shellHelp)
		default:
			printWarn(out, "Unknown command %q (try help)", cmd)
		}
	}
}

// announceTick limits countdown lines to whole minutes and the last
// half minute.
func announceTick(secs int) bool {
	return secs > 0 && (secs%60 == 0 || secs == 30 || secs == 10)
}

func countdownText(secs int) string {
	return session.FormatDuration(time.Duration(secs) * time.Second)
}

func printShellStatus(w io.Writer, st session.Status) {
	if st.Episode == "" {
		printField(w, "State", st.State.String())
		return
	}
	printField(w, "Signed in as", st.DisplayName)
	printField(w, "State", st.State.String())
	printField(w, "Idle", session.FormatDuration(st.IdleTime))
	printField(w, "Signs out in", session.FormatDuration(st.RemainingTime))
}
