// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - login, logout and status without the full-screen UI.
//
// Examples:
//
//	todo-tui login --user alice --token "$TOKEN"
//	echo "$TOKEN" | todo-tui login --stdin
//	todo-tui status --json
//	todo-tui logout

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/todo-tui/internal/session"
)

// End reasons recorded by the CLI.
const (
	endReasonLogout   = "logout"
	endReasonReplaced = "replaced"
)

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin persists a session from --user, --name and --token. With
// --stdin the token is read from the first line of standard input; on a
// terminal it is prompted for without echo.
func HandleLogin(env *Env, args Args) error {
	token, err := loginToken(env, args.Flags)
	if err != nil {
		return err
	}

	rt, err := env.Open()
	if err != nil {
		return err
	}
	defer rt.Close()

	now := rt.Clock.Now()
	sess := session.FromInput(args.Flags.Flag("user"), args.Flags.Flag("name"), token, now)
	if email := strings.TrimSpace(args.Flags.Flag("email")); email != "" {
		sess.Email = email
	}
	if sess.UserID == "" {
		return &UsageError{Message: "--user is required unless the token carries a subject"}
	}

	// A restored session is being replaced; close it in the audit trail.
	if rt.Scheduler.Start() {
		rt.Logout(endReasonReplaced)
	}
	if err := rt.Login(sess); err != nil {
		return err
	}

	st := rt.Scheduler.Status()
	if args.JSON {
		return NewJSONResponse("login", LoginData{
			UserID:      st.UserID,
			DisplayName: st.DisplayName,
			Episode:     st.Episode,
		}).Write(env.Stdout)
	}
	if !args.Quiet {
		printOK(env.Stdout, "Signed in as %s", st.DisplayName)
	}
	return nil
}

func loginToken(env *Env, flags *ArgParser) (string, error) {
	if token := strings.TrimSpace(flags.Flag("token")); token != "" {
		return token, nil
	}
	if flags.BoolFlag("stdin") {
		line, err := bufio.NewReader(env.Stdin).ReadString('\n')
		token := strings.TrimSpace(line)
		if token == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("failed to read token from stdin: %w", err)
			}
			return "", &UsageError{Message: "no token on stdin"}
		}
		return token, nil
	}
	if !env.TTY {
		return "", &UsageError{Message: "--token is required (or pass --stdin)"}
	}
	return ReadSecret(env.Stderr, "Token: ")
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout clears the persisted session. Signing out when nobody is
// signed in is not an error.
func HandleLogout(env *Env, args Args) error {
	rt, err := env.Open()
	if err != nil {
		return err
	}
	defer rt.Close()

	var (
		user string
		was  bool
	)
	if rt.Scheduler.Start() {
		user, was = rt.Logout(endReasonLogout)
	}

	if args.JSON {
		return NewJSONResponse("logout", LogoutData{WasSignedIn: was, UserID: user}).Write(env.Stdout)
	}
	if args.Quiet {
		return nil
	}
	if was {
		printOK(env.Stdout, "Signed out %s", user)
	} else {
		fmt.Fprintln(env.Stdout, DimStyle.Render("Not signed in."))
	}
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// HandleStatus reports the persisted session without touching it. A
// damaged record is reported, not repaired.
func HandleStatus(env *Env, args Args) error {
	rt, err := env.Open()
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config
	data := StatusData{
		Backend:               cfg.Storage.Backend,
		Sealed:                cfg.Storage.Seal,
		InactivityTimeoutSecs: cfg.Session.InactivityTimeoutSecs,
		WarningSecs:           cfg.Session.WarningSecs,
		ResumePolicy:          cfg.Session.ResumePolicy,
	}

	sess, peekErr := rt.Store.Peek()
	var restoreErr *session.RestoreError
	if peekErr != nil && !errors.As(peekErr, &restoreErr) {
		return &storageError{err: peekErr}
	}
	if sess != nil {
		data.SignedIn = true
		data.UserID = sess.UserID
		data.DisplayName = sess.Name()
		data.Email = sess.Email
		if !sess.IssuedAt.IsZero() {
			issued := sess.IssuedAt.UTC()
			data.IssuedAt = &issued
		}
	}

	if args.JSON {
		return NewJSONResponse("status", data).Write(env.Stdout)
	}

	printTitle(env.Stdout, "todo-tui status")
	if peekErr != nil {
		printWarn(env.Stdout, "Stored session is damaged (%v); it will be discarded on next start", peekErr)
	}
	if data.SignedIn {
		printField(env.Stdout, "Signed in as", data.DisplayName)
		printField(env.Stdout, "User ID", data.UserID)
		if data.Email != "" {
			printField(env.Stdout, "Email", data.Email)
		}
		if data.IssuedAt != nil {
			printField(env.Stdout, "Issued", data.IssuedAt.Format(time.RFC3339))
		}
	} else {
		printField(env.Stdout, "Signed in as", "nobody")
	}
	backend := data.Backend
	if data.Sealed {
		backend += " (sealed)"
	}
	printField(env.Stdout, "Storage", backend)
	printField(env.Stdout, "Sign out after", session.FormatDuration(cfg.Session.InactivityTimeout())+" idle")
	printField(env.Stdout, "Warning", session.FormatDuration(cfg.Session.WarningDuration()))
	printField(env.Stdout, "Resume policy", data.ResumePolicy)
	return nil
}
