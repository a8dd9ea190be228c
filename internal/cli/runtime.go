// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Builds the session stack every command runs on.

package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/todo-tui/internal/activity"
	"github.com/jeranaias/todo-tui/internal/audit"
	"github.com/jeranaias/todo-tui/internal/clock"
	"github.com/jeranaias/todo-tui/internal/config"
	"github.com/jeranaias/todo-tui/internal/lifecycle"
	"github.com/jeranaias/todo-tui/internal/logging"
	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/storage"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what a command runs against.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Storage, when set, is used instead of opening the configured backend
	// and is not closed by the Runtime.
	Storage storage.Storage

	// TTY reports whether stdin and stdout are terminals.
	TTY bool
}

// NewEnv returns an Env on the process's standard streams.
func NewEnv(cfg *config.Config) *Env {
	return &Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: cfg,
		TTY:    IsTTY() && IsStdoutTTY(),
	}
}

// ApplyArgs copies global flag overrides into the config and validates it.
func (e *Env) ApplyArgs(args Args) error {
	if args.Language != "" {
		e.Config.UI.Language = args.Language
	}
	if args.Theme != "" {
		e.Config.UI.Theme = args.Theme
	}
	if args.Backend != "" {
		e.Config.Storage.Backend = args.Backend
	}
	if args.NoMouse {
		e.Config.UI.Mouse = false
	}
	return e.Config.Validate()
}

// SchedulerConfig converts the [session] section.
func SchedulerConfig(s config.SessionConfig) (session.Config, error) {
	policy, err := session.ParseResumePolicy(s.ResumePolicy)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		InactivityTimeout: s.InactivityTimeout(),
		WarningDuration:   s.WarningDuration(),
		ResumePolicy:      policy,
		ActivityDebounce:  s.ActivityDebounce(),
	}, nil
}

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime is the wired session stack: storage, store, scheduler, activity
// monitor and audit trail.
type Runtime struct {
	Config    *config.Config
	Clock     clock.Clock
	Logger    *zap.Logger
	Storage   storage.Storage
	Store     *session.Store
	Bus       *lifecycle.Bus
	Monitor   *activity.Monitor
	Scheduler *session.Scheduler
	Audit     *audit.Logger // nil when auditing is disabled
	Recorder  *audit.Recorder

	ownsStorage bool
	unsubscribe func()
}

// Open builds a Runtime from the Env. The caller must Close it.
func (e *Env) Open() (_ *Runtime, err error) {
	cfg := e.Config
	rt := &Runtime{Config: cfg, Clock: e.Clock}
	if rt.Clock == nil {
		rt.Clock = clock.NewReal()
	}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, &CommandError{Command: "startup", Action: "resolve log path", Err: err}
	}
	rt.Logger, err = logging.New(logging.Options{Level: cfg.Log.Level, Path: logPath})
	if err != nil {
		return nil, &CommandError{Command: "startup", Action: "open log", Err: err}
	}

	rt.Storage = e.Storage
	if rt.Storage == nil {
		opts, err := cfg.StorageOptions()
		if err != nil {
			return nil, &storageError{err: err}
		}
		if rt.Storage, err = storage.Open(opts); err != nil {
			return nil, &storageError{err: err}
		}
		rt.ownsStorage = true
	}
	rt.Store = session.NewStore(rt.Storage, rt.Logger.Named("store"))

	if cfg.Audit.Enabled {
		auditPath, err := cfg.AuditPath()
		if err != nil {
			return nil, &CommandError{Command: "startup", Action: "resolve audit path", Err: err}
		}
		if rt.Audit, err = audit.NewLogger(auditPath); err != nil {
			return nil, &CommandError{Command: "startup", Action: "open audit log", Err: err}
		}
		rt.Audit.SetMaxSize(int64(cfg.Audit.MaxSizeMB) << 20)
	}
	rt.Recorder = audit.NewRecorder(rt.Audit, rt.Logger.Named("audit"))

	schedCfg, err := SchedulerConfig(cfg.Session)
	if err != nil {
		return nil, err
	}
	rt.Bus = lifecycle.NewBus()
	rt.Monitor = activity.NewMonitor()
	rt.Scheduler, err = session.NewScheduler(schedCfg, session.Deps{
		Clock:    rt.Clock,
		Store:    rt.Store,
		Bus:      rt.Bus,
		Activity: rt.Monitor,
		Logger:   rt.Logger.Named("scheduler"),
	})
	if err != nil {
		return nil, err
	}
	rt.unsubscribe = rt.Bus.Subscribe(rt.Recorder.Handle)

	rt.Logger.Debug("runtime ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("sealed", cfg.Storage.Seal),
		zap.Stringer("resume_policy", schedCfg.ResumePolicy))
	return rt, nil
}

// Watch returns the storage change notifier when the backend supports one
// (the unsealed file backend), or nil.
func (rt *Runtime) Watch() func(ctx context.Context, onChange func()) error {
	if f, ok := rt.Storage.(*storage.File); ok {
		return f.Watch
	}
	return nil
}

// Login signs sess in and records the start.
func (rt *Runtime) Login(sess session.Session) error {
	if err := rt.Scheduler.Login(sess); err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			return err
		}
		return &storageError{err: err}
	}
	st := rt.Scheduler.Status()
	rt.Recorder.Start(rt.Clock.Now(), st.Episode, st.UserID, false)
	return nil
}

// Logout signs the current session out and records why. It reports the
// user that was signed out, if any.
func (rt *Runtime) Logout(reason string) (userID string, ok bool) {
	st := rt.Scheduler.Status()
	if st.Episode == "" {
		return "", false
	}
	rt.Scheduler.Logout()
	rt.Recorder.End(rt.Clock.Now(), st.Episode, st.UserID, reason)
	return st.UserID, true
}

// Close stops the scheduler, keeping the persisted session, and releases
// everything Open acquired. Safe on a partially opened Runtime.
func (rt *Runtime) Close() {
	if rt.Scheduler != nil {
		rt.Scheduler.Stop()
	}
	if rt.unsubscribe != nil {
		rt.unsubscribe()
	}
	if rt.ownsStorage && rt.Storage != nil {
		if err := storage.Close(rt.Storage); err != nil {
			rt.Logger.Warn("failed to close storage", zap.Error(err))
		}
	}
	if rt.Audit != nil {
		_ = rt.Audit.Close()
	}
	if rt.Logger != nil {
		_ = rt.Logger.Sync()
	}
}
