// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the Bubble Tea program that fronts the session scheduler:
// a login form, a home screen for the signed-in user and the inactivity
// overlay.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/todo-tui/internal/activity"
	"github.com/jeranaias/todo-tui/internal/audit"
	"github.com/jeranaias/todo-tui/internal/clock"
	"github.com/jeranaias/todo-tui/internal/lifecycle"
	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/ui/components"
	"github.com/jeranaias/todo-tui/internal/ui/i18n"
	"github.com/jeranaias/todo-tui/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen is the view currently shown.
type Screen int

const (
	ScreenLogin   Screen = iota // Login form
	ScreenHome                  // Signed in
	ScreenExpired               // Signed out by inactivity
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenHome:
		return "home"
	case ScreenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// End reasons written to the audit log.
const (
	EndLogout   = "logout"
	EndExternal = "external"
	EndReplaced = "replaced"
)

// =============================================================================
// MODEL
// =============================================================================

// Deps are the collaborators the UI drives. Monitor must be the
// ActivitySource the Scheduler was built with.
type Deps struct {
	Scheduler *session.Scheduler
	Store     *session.Store
	Monitor   *activity.Monitor
	Recorder  *audit.Recorder // optional
	Clock     clock.Clock     // defaults to the real clock
	Logger    *zap.Logger     // defaults to no-op

	// Watch, when set, reports writes to the session storage made outside
	// this process (file backend).
	Watch func(ctx context.Context, onChange func()) error
}

// Options are the user-facing settings.
type Options struct {
	Language string
	Theme    string
}

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	sched  *session.Scheduler
	logger *zap.Logger
	theme  *styles.Theme
	loc    *i18n.Locale
	keys   KeyMap
	inbox  *inbox

	screen  Screen
	episode string // episode the UI is showing; events for others are stale
	form    components.LoginForm
	overlay components.TimeoutOverlay
	status  *components.StatusBar

	width    int
	height   int
	quitting bool

	unsubscribe func()
	stopWatch   context.CancelFunc
	closeOnce   *sync.Once
}

// New builds the model, subscribes it to lifecycle events and restores a
// persisted session if there is one.
func New(deps Deps, opts Options) (Model, error) {
	if deps.Scheduler == nil || deps.Store == nil || deps.Monitor == nil {
		return Model{}, errors.New("app: scheduler, store and monitor are required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewReal()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	theme := styles.NewTheme(opts.Theme)
	loc := i18n.New(opts.Language)
	theme.SetRTL(loc.IsRTL())

	m := Model{
		deps:      deps,
		sched:     deps.Scheduler,
		logger:    deps.Logger.Named("ui"),
		theme:     theme,
		loc:       loc,
		keys:      DefaultKeyMap(),
		inbox:     newInbox(),
		screen:    ScreenLogin,
		form:      components.NewLoginForm(theme, loc, deps.Clock.Now),
		overlay:   components.NewTimeoutOverlay(theme, loc),
		status:    components.NewStatusBar(theme, loc),
		width:     80,
		height:    24,
		closeOnce: &sync.Once{},
	}
	m.theme.SetSize(m.width, m.height)
	m.overlay.SetTotal(int(deps.Scheduler.Config().WarningDuration / time.Second))

	q := m.inbox
	m.unsubscribe = deps.Scheduler.Subscribe(func(ev lifecycle.Event) {
		q.push(LifecycleMsg{Event: ev})
	})

	if deps.Watch != nil {
		ctx, cancel := context.WithCancel(context.Background())
		if err := deps.Watch(ctx, func() { q.push(StorageChangedMsg{}) }); err != nil {
			cancel()
			m.logger.Warn("storage watch unavailable", zap.Error(err))
		} else {
			m.stopWatch = cancel
		}
	}

	if deps.Scheduler.Start() {
		m.adopt(true)
	}
	m.refreshStatus()
	return m, nil
}

// Screen returns the current screen.
func (m Model) Screen() Screen {
	return m.screen
}

// Close releases the subscription and watcher and stops the scheduler.
// The persisted session is kept for the next start. Idempotent.
func (m Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		if m.stopWatch != nil {
			m.stopWatch()
		}
		m.inbox.close()
		m.sched.Stop()
	})
}

// Run starts the program on the alternate screen and closes the model when
// it exits. With mouse set, pointer motion and clicks count as activity.
func Run(m Model, mouse bool) error {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	defer m.Close()
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the inbox listener, the cursor blink and the status refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), m.form.Init(), statusTick())
}

// listen waits for the next inbox message. Exactly one listen is pending at
// any time; Update re-issues it after each queued message.
func (m Model) listen() tea.Cmd {
	q := m.inbox
	return func() tea.Msg {
		msg := q.next()
		if msg == nil {
			return nil
		}
		return queuedMsg{msg: msg}
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case queuedMsg:
		next, cmd := m.handleQueued(msg.msg)
		return next, tea.Batch(cmd, m.listen())

	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case statusTickMsg:
		m.refreshStatus()
		return m, statusTick()

	case components.LoginSubmitMsg:
		return m.handleLogin(msg.Session)
	}

	if sig, ok := activity.FromTeaMsg(msg); ok {
		inWarning := m.sched.State() == session.Warning
		m.deps.Monitor.Notify(sig)

		keyMsg, isKey := msg.(tea.KeyMsg)
		if !isKey {
			return m, nil
		}
		// The key that dismisses the warning does nothing else.
		if inWarning && !key.Matches(keyMsg, m.keys.ForceQuit) {
			return m, nil
		}
		return m.handleKey(keyMsg)
	}

	if m.screen == ScreenLogin {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.overlay.SetSize(msg.Width, msg.Height)
	m.form.SetWidth(msg.Width)
	m.status.SetWidth(msg.Width)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	switch m.screen {
	case ScreenLogin:
		if key.Matches(msg, m.keys.Back) {
			return m.quit()
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case ScreenHome:
		switch {
		case key.Matches(msg, m.keys.Logout):
			cmd := m.logout(EndLogout)
			return m, cmd
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
			return m.quit()
		}

	case ScreenExpired:
		switch {
		case key.Matches(msg, m.keys.Continue):
			m.overlay.Hide()
			m.screen = ScreenLogin
			return m, nil
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
			return m.quit()
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Close()
	return m, tea.Quit
}

// =============================================================================
// SESSION HANDLING
// =============================================================================

func (m Model) handleLogin(sess session.Session) (tea.Model, tea.Cmd) {
	if err := m.sched.Login(sess); err != nil {
		m.logger.Warn("login failed", zap.Error(err))
		m.form.SetError(m.loc.T(i18n.SignInFailed, err.Error()))
		return m, nil
	}
	m.adopt(false)
	return m, nil
}

// adopt switches the UI to the scheduler's current session.
func (m *Model) adopt(restored bool) {
	st := m.sched.Status()
	m.episode = st.Episode
	if m.deps.Recorder != nil {
		m.deps.Recorder.Start(m.deps.Clock.Now(), st.Episode, st.UserID, restored)
	}
	m.screen = ScreenHome
	m.overlay.Hide()
	m.status.SetStatus(st)
}

// logout ends the session on the user's behalf and returns to the form.
func (m *Model) logout(reason string) tea.Cmd {
	st := m.sched.Status()
	m.sched.Logout()
	if st.State != session.LoggedOut && m.deps.Recorder != nil {
		m.deps.Recorder.End(m.deps.Clock.Now(), st.Episode, st.UserID, reason)
	}
	m.episode = ""
	m.overlay.Hide()
	m.screen = ScreenLogin
	m.refreshStatus()
	return m.form.Reset()
}

func (m Model) handleQueued(msg any) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LifecycleMsg:
		return m.handleLifecycle(msg.Event)
	case StorageChangedMsg:
		return m.reconcile()
	}
	return m, nil
}

func (m Model) handleLifecycle(ev lifecycle.Event) (Model, tea.Cmd) {
	if ev.Episode != m.episode {
		m.logger.Debug("dropping stale lifecycle event",
			zap.Stringer("kind", ev.Kind),
			zap.String("episode", ev.Episode))
		return m, nil
	}

	var cmd tea.Cmd
	switch ev.Kind {
	case lifecycle.WarningShown:
		m.overlay.Show(ev.SecondsRemaining)
	case lifecycle.CountdownTick:
		m.overlay.SetSeconds(ev.SecondsRemaining)
	case lifecycle.SessionExtended:
		m.overlay.Hide()
	case lifecycle.SessionExpired:
		m.episode = ""
		m.overlay.ShowExpired(m.sched.Config().InactivityTimeout)
		m.screen = ScreenExpired
		cmd = m.form.Reset()
		m.form.SetNotice(m.loc.T(i18n.SessionExpired))
	}
	m.refreshStatus()
	return m, cmd
}

// reconcile follows changes another process made to the stored session.
// A half-written pair is skipped; the write that completes it triggers
// another reconcile.
func (m Model) reconcile() (Model, tea.Cmd) {
	stored, err := m.deps.Store.Peek()
	if err != nil {
		m.logger.Debug("stored session not readable yet", zap.Error(err))
		return m, nil
	}
	current, signedIn := m.sched.Session()

	switch {
	case stored == nil && signedIn:
		m.logger.Info("session cleared by another process")
		cmd := m.logout(EndExternal)
		m.form.SetNotice(m.loc.T(i18n.SignedOutRemote))
		return m, cmd

	case stored != nil && (!signedIn || stored.UserID != current.UserID || stored.Token != current.Token):
		m.logger.Info("session replaced by another process", zap.String("user", stored.UserID))
		if signedIn && m.deps.Recorder != nil {
			st := m.sched.Status()
			m.deps.Recorder.End(m.deps.Clock.Now(), st.Episode, st.UserID, EndReplaced)
		}
		if err := m.sched.Login(*stored); err != nil {
			m.logger.Warn("failed to adopt stored session", zap.Error(err))
			return m, nil
		}
		m.adopt(true)
	}
	return m, nil
}

func (m Model) refreshStatus() {
	m.status.SetStatus(m.sched.Status())
}
