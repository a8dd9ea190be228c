// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/todo-tui/internal/clock"
	"github.com/jeranaias/todo-tui/internal/config"
	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/storage"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	*Env
	clock  *clock.Fake
	mem    *storage.Memory
	out    *bytes.Buffer
	errOut *bytes.Buffer
	home   string
}

// newTestEnv returns an Env on in-memory storage, a fake clock and a
// private config directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)

	cfg := config.Default()
	cfg.Storage.Backend = storage.BackendMemory

	te := &testEnv{
		clock:  clock.NewFake(epoch),
		mem:    storage.NewMemory(),
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		home:   home,
	}
	te.Env = &Env{
		Stdin:   strings.NewReader(""),
		Stdout:  te.out,
		Stderr:  te.errOut,
		Config:  cfg,
		Clock:   te.clock,
		Storage: te.mem,
	}
	return te
}

// run parses argv and dispatches it, clearing previous output first.
func (te *testEnv) run(t *testing.T, argv ...string) error {
	t.Helper()
	cmd, args, err := Parse(argv)
	require.NoError(t, err)
	te.out.Reset()
	te.errOut.Reset()
	return Dispatch(te.Env, cmd, args)
}

func (te *testEnv) auditLog(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(te.home, "audit.log"))
	require.NoError(t, err)
	return string(data)
}

func decodeResponse(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(raw, &resp), string(raw))
	return resp
}

// =============================================================================
// PARSING
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdTUI},
		{[]string{"tui"}, CmdTUI},
		{[]string{"ui"}, CmdTUI},
		{[]string{"login"}, CmdLogin},
		{[]string{"signin"}, CmdLogin},
		{[]string{"logout"}, CmdLogout},
		{[]string{"signout"}, CmdLogout},
		{[]string{"status"}, CmdStatus},
		{[]string{"whoami"}, CmdStatus},
		{[]string{"shell"}, CmdShell},
		{[]string{"token"}, CmdToken},
		{[]string{"cfg", "path"}, CmdConfig},
		{[]string{"--version"}, CmdVersion},
		{[]string{"-h"}, CmdHelp},
		{[]string{"STATUS"}, CmdStatus},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			cmd, _, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParse_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args, err := Parse([]string{"--lang", "he", "status", "--json", "--theme=light", "-q", "--no-mouse", "--backend", "sqlite"})
	require.NoError(t, err)

	assert.Equal(t, CmdStatus, cmd)
	assert.True(t, args.JSON)
	assert.True(t, args.Quiet)
	assert.True(t, args.NoMouse)
	assert.Equal(t, "he", args.Language)
	assert.Equal(t, "light", args.Theme)
	assert.Equal(t, "sqlite", args.Backend)
	assert.Empty(t, args.Subcommand)
}

func TestParse_MissingGlobalValue(t *testing.T) {
	_, _, err := Parse([]string{"status", "--lang"})
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
	assert.Contains(t, usageErr.Message, "--lang")
}

func TestParse_UnknownCommandSuggests(t *testing.T) {
	cmd, _, err := Parse([]string{"stauts"})
	assert.Equal(t, CmdHelp, cmd)

	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
	assert.Equal(t, "status", usageErr.Suggestion)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestParse_CommandFlags(t *testing.T) {
	_, args, err := Parse([]string{"config", "init", "--force"})
	require.NoError(t, err)
	assert.Equal(t, "init", args.Subcommand)
	assert.True(t, args.Flags.BoolFlag("force"))

	// --stdin never swallows the next argument.
	_, args, err = Parse([]string{"login", "--stdin", "extra", "--user", "alice"})
	require.NoError(t, err)
	assert.True(t, args.Flags.BoolFlag("stdin"))
	assert.Equal(t, "extra", args.Subcommand)
	assert.Equal(t, "alice", args.Flags.Flag("user"))
}

func TestSuggestCommand(t *testing.T) {
	assert.Equal(t, "logout", SuggestCommand("logot"))
	assert.Equal(t, "shell", SuggestCommand("shel"))
	assert.Empty(t, SuggestCommand("xyzzy"))
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"show", "--user", "alice", "--token=a.b.c", "--force", "-", "--verbose=true"}, "force")

	assert.Equal(t, "show", p.Subcommand())
	assert.Equal(t, "alice", p.Flag("user"))
	assert.Equal(t, "a.b.c", p.Flag("token"))
	assert.True(t, p.BoolFlag("force"))
	assert.True(t, p.BoolFlag("verbose"))
	assert.Equal(t, "-", p.Positional(1))
	assert.Equal(t, 2, p.PositionalCount())
	assert.True(t, p.HasFlag("--user"))
	assert.False(t, p.HasFlag("name"))
	assert.Equal(t, "fallback", p.FlagOrDefault("name", "fallback"))
}

func TestArgParser_FlagDuration(t *testing.T) {
	d, err := NewArgParser(nil).FlagDuration("ttl", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = NewArgParser([]string{"--ttl", "90s"}).FlagDuration("ttl", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = NewArgParser([]string{"--ttl", "soon"}).FlagDuration("ttl", time.Hour)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "ttl", validationErr.Field)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestArgParser_RequireFlag(t *testing.T) {
	_, err := NewArgParser([]string{"--user", "  "}).RequireFlag("user")
	require.Error(t, err)
	assert.Equal(t, "--user is required", err.Error())
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"usage", &UsageError{Message: "bad"}, ExitUsageError},
		{"config", config.ValidateErrors{{Field: "ui.theme", Message: "unknown"}}, ExitConfigError},
		{"not signed in", fmt.Errorf("shell: %w", ErrNotSignedIn), ExitAuthError},
		{"invalid session", session.ErrInvalidSession, ExitAuthError},
		{"storage", &storageError{err: errors.New("refused")}, ExitStorageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "status", &UsageError{Message: "unknown command", Suggestion: "status"}, true)

	resp := decodeResponse(t, buf.Bytes())
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "status", resp["command"])
	details := resp["details"].(map[string]any)
	assert.Equal(t, "usage_error", details["type"])
	assert.Equal(t, "status", details["suggestion"])
}

func TestDisplayError_Text(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "login", ErrNotSignedIn, false)
	assert.Contains(t, buf.String(), "[Error]")
	assert.Contains(t, buf.String(), ErrNotSignedIn.Error())
}

// =============================================================================
// LOGIN / STATUS / LOGOUT
// =============================================================================

func TestLoginStatusLogout(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "login", "--user", "alice", "--name", "Alice Smith", "--token", "tok-1", "--email", "alice@example.com"))
	assert.Contains(t, te.out.String(), "Signed in as Alice Smith")

	require.NoError(t, te.run(t, "status", "--json"))
	resp := decodeResponse(t, te.out.Bytes())
	data := resp["data"].(map[string]any)
	assert.Equal(t, true, data["signed_in"])
	assert.Equal(t, "alice", data["user_id"])
	assert.Equal(t, "Alice Smith", data["display_name"])
	assert.Equal(t, "alice@example.com", data["email"])
	assert.Equal(t, "memory", data["backend"])
	assert.Equal(t, float64(1800), data["inactivity_timeout_secs"])

	require.NoError(t, te.run(t, "status"))
	assert.Contains(t, te.out.String(), "Alice Smith")
	assert.Contains(t, te.out.String(), "30m idle")

	require.NoError(t, te.run(t, "logout"))
	assert.Contains(t, te.out.String(), "Signed out alice")
	_, ok, err := te.mem.Get(session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, te.run(t, "logout"))
	assert.Contains(t, te.out.String(), "Not signed in.")

	log := te.auditLog(t)
	assert.Contains(t, log, "SESSION_START")
	assert.Contains(t, log, "source=login")
	assert.Contains(t, log, "SESSION_END")
	assert.Contains(t, log, "reason=logout")
}

func TestLogin_ReplacesRestoredSession(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "login", "--user", "alice", "--token", "tok-1"))
	require.NoError(t, te.run(t, "login", "--user", "bob", "--token", "tok-2", "--json"))

	resp := decodeResponse(t, te.out.Bytes())
	data := resp["data"].(map[string]any)
	assert.Equal(t, "bob", data["user_id"])
	assert.NotEmpty(t, data["episode"])

	assert.Contains(t, te.auditLog(t), "reason=replaced")
}

func TestLogin_FromStdin(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader("tok-from-pipe\nignored\n")

	require.NoError(t, te.run(t, "login", "--stdin", "--user", "carol"))

	token, ok, err := te.mem.Get(session.TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-from-pipe", token)
}

func TestLogin_Errors(t *testing.T) {
	te := newTestEnv(t)

	err := te.run(t, "login", "--user", "alice")
	assert.Equal(t, ExitUsageError, GetExitCode(err), "no token and no terminal")

	te.Stdin = strings.NewReader("")
	err = te.run(t, "login", "--stdin", "--user", "alice")
	assert.Equal(t, ExitUsageError, GetExitCode(err), "empty stdin")

	err = te.run(t, "login", "--token", "opaque")
	assert.Equal(t, ExitUsageError, GetExitCode(err), "no user")

	assert.Zero(t, te.mem.Len())
}

func TestStatus_NotSignedIn(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "status", "--json"))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, false, data["signed_in"])
	assert.NotContains(t, data, "user_id")
}

func TestStatus_DamagedRecordIsNotRepaired(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.mem.Set(session.TokenKey, "tok-1"))
	require.NoError(t, te.mem.Set(session.UserKey, "{not json"))

	require.NoError(t, te.run(t, "status"))
	assert.Contains(t, te.out.String(), "damaged")

	raw, ok, err := te.mem.Get(session.UserKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{not json", raw)
}

// =============================================================================
// TOKEN
// =============================================================================

func TestToken_RoundTrip(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "token", "--user", "dave", "--name", "Dave Jones", "--secret", "s3cret", "--ttl", "1h"))
	token := strings.TrimSpace(te.out.String())
	assert.Contains(t, te.errOut.String(), "expires")
	assert.NotContains(t, te.errOut.String(), "default development secret")

	sess, err := session.FromToken(token, epoch)
	require.NoError(t, err)
	assert.Equal(t, "dave", sess.UserID)
	assert.Equal(t, "Dave Jones", sess.DisplayName)
	assert.True(t, sess.IssuedAt.Equal(epoch))

	// The claims fill the identity when --user is omitted.
	require.NoError(t, te.run(t, "login", "--token", token))
	assert.Contains(t, te.out.String(), "Signed in as Dave Jones")
}

func TestToken_JSONAndDefaults(t *testing.T) {
	te := newTestEnv(t)
	t.Setenv(DevSecretEnv, "")

	require.NoError(t, te.run(t, "token", "--user", "erin", "--json"))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, "erin", data["user_id"])
	assert.Equal(t, epoch.Add(defaultTokenTTL).Format(time.RFC3339), data["expires_at"])

	err := te.run(t, "token")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CONFIG / VERSION / HELP
// =============================================================================

func TestConfig_InitPathShow(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "config", "path"))
	assert.Contains(t, te.out.String(), "No config file yet")

	require.NoError(t, te.run(t, "config", "init"))
	assert.FileExists(t, filepath.Join(te.home, "config.toml"))

	err := te.run(t, "config", "init")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	require.NoError(t, te.run(t, "config", "init", "--force"))

	require.NoError(t, te.run(t, "config", "path", "--json"))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, te.home, data["dir"])
	assert.Equal(t, filepath.Join(te.home, "audit.log"), data["audit_log"])
	assert.NotContains(t, data, "storage", "memory backend has no file")

	require.NoError(t, te.run(t, "config"))
	assert.Contains(t, te.out.String(), "inactivity_timeout_secs")

	err = te.run(t, "config", "frobnicate")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestVersion(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "version"))
	assert.Contains(t, te.out.String(), "todo-tui version "+Version)

	require.NoError(t, te.run(t, "version", "--json"))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, Version, data["version"])
}

func TestHelp_PlainWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleHelp(&buf, false))
	assert.Equal(t, usageText, buf.String())
}

func TestApplyArgs(t *testing.T) {
	env := &Env{Config: config.Default()}
	require.NoError(t, env.ApplyArgs(Args{Language: "ar", Theme: "light", NoMouse: true}))
	assert.Equal(t, "ar", env.Config.UI.Language)
	assert.Equal(t, "light", env.Config.UI.Theme)
	assert.False(t, env.Config.UI.Mouse)

	err := env.ApplyArgs(Args{Language: "fr"})
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

// =============================================================================
// SHELL
// =============================================================================

type scriptStep struct {
	before func()
	line   string
	err    error
}

// scriptedReader replays lines, running each step's hook while "waiting"
// at the prompt. It reports io.EOF once the script runs out.
type scriptedReader struct {
	steps   []scriptStep
	history []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.steps) == 0 {
		return "", io.EOF
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	if step.before != nil {
		step.before()
	}
	return step.line, step.err
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func TestShell_CountdownExtendAndExpiry(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.run(t, "login", "--user", "alice", "--name", "Alice", "--token", "tok-1"))
	te.out.Reset()

	rt, err := te.Open()
	require.NoError(t, err)
	defer rt.Close()

	var afterWarning, afterExtend string
	reader := &scriptedReader{steps: []scriptStep{
		{before: func() {
			te.clock.Advance(25 * time.Minute)
			afterWarning = te.out.String()
		}},
		{line: "status", before: func() { afterExtend = te.out.String() }},
		{before: func() { te.clock.Advance(30 * time.Minute) }},
		{line: "status"},
	}}

	require.NoError(t, runShell(te.Env, rt, reader))

	assert.Contains(t, afterWarning, "signing out in 5m")
	assert.Contains(t, afterExtend, "Session extended")
	out := te.out.String()
	assert.Contains(t, out, "Signing out in 1m")
	assert.Contains(t, out, "Signing out in 10s")
	assert.Contains(t, out, "Signed out after 30m of inactivity.")
	assert.Len(t, reader.steps, 1, "shell stops prompting after expiry")
	assert.Equal(t, []string{"status"}, reader.history)

	sess, err := rt.Store.Peek()
	require.NoError(t, err)
	assert.Nil(t, sess)

	log := te.auditLog(t)
	assert.Contains(t, log, "source=restore")
	assert.Contains(t, log, "SESSION_TIMEOUT_WARNING")
	assert.Contains(t, log, "SESSION_EXTENDED")
	assert.Contains(t, log, "SESSION_TIMEOUT |")
}

func TestShell_QuitKeepsSession(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.run(t, "login", "--user", "alice", "--token", "tok-1"))

	rt, err := te.Open()
	require.NoError(t, err)
	defer rt.Close()

	reader := &scriptedReader{steps: []scriptStep{{line: "help"}, {line: "bogus"}, {line: "quit"}}}
	require.NoError(t, runShell(te.Env, rt, reader))
	assert.Contains(t, te.out.String(), "Commands:")
	assert.Contains(t, te.out.String(), `Unknown command "bogus"`)

	sess, err := rt.Store.Peek()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "alice", sess.UserID)
}

func TestShell_Logout(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.run(t, "login", "--user", "alice", "--token", "tok-1"))

	rt, err := te.Open()
	require.NoError(t, err)
	defer rt.Close()

	reader := &scriptedReader{steps: []scriptStep{{line: "  LOGOUT "}}}
	require.NoError(t, runShell(te.Env, rt, reader))
	assert.Contains(t, te.out.String(), "Signed out alice")
	assert.Zero(t, te.mem.Len())
}

func TestShell_NotSignedIn(t *testing.T) {
	te := newTestEnv(t)

	rt, err := te.Open()
	require.NoError(t, err)
	defer rt.Close()

	err = runShell(te.Env, rt, &scriptedReader{})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestAnnounceTick(t *testing.T) {
	for secs, want := range map[int]bool{300: true, 240: true, 59: false, 30: true, 10: true, 9: false, 0: false} {
		assert.Equal(t, want, announceTick(secs), "secs=%d", secs)
	}
}

func TestConfig_InitJSONAndExplicitPath(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.run(t, "config", "init", "--format", "json"))
	path := filepath.Join(te.home, "config.json")
	assert.FileExists(t, path)

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 1800, cfg.Session.InactivityTimeoutSecs)

	err = te.run(t, "config", "init", "--format", "yaml")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, args, err := Parse([]string{"--config=" + path, "status"})
	require.NoError(t, err)
	assert.Equal(t, path, args.ConfigPath)
}
