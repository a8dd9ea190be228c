// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/todo-tui/internal/clock"
	"github.com/jeranaias/todo-tui/internal/lifecycle"
	"github.com/jeranaias/todo-tui/internal/util"
)

// =============================================================================
// SESSION SCHEDULER
// =============================================================================

// ActivitySource delivers user activity while started. *activity.Monitor
// satisfies it. Detach must not block; Wait blocks until no callback
// invocation is in flight.
type ActivitySource interface {
	Start(onActivity func())
	Detach()
	Wait()
}

// Deps are the collaborators of a Scheduler. Clock, Bus and Logger default
// to the runtime clock, a private bus and a no-op logger; Activity may be nil.
type Deps struct {
	Clock    clock.Clock
	Store    *Store
	Bus      *lifecycle.Bus
	Activity ActivitySource
	Logger   *zap.Logger
}

// Scheduler owns the session lifecycle: it persists logins, arms the
// inactivity timers, publishes the countdown and forces logout on expiry.
//
// All transitions are serialized by mu. Events are queued on the bus while
// mu is held and delivered after it is released, so handlers may call back
// into the Scheduler.
type Scheduler struct {
	mu sync.Mutex

	cfg      Config
	clock    clock.Clock
	store    *Store
	bus      *lifecycle.Bus
	activity ActivitySource
	logger   *zap.Logger

	state        State
	session      *Session
	episode      string
	startedAt    time.Time
	lastActivity time.Time
	countdown    *Countdown
	announced    int // last seconds value published this warning, -1 if none
	limiter      *rate.Limiter
	started      bool

	// watch identifies the callback handed to the activity source; a
	// callback carrying an older value is ignored. drain asks the next
	// unlock to wait out callbacks still in flight.
	watch   uint64
	drain   bool
	signals atomic.Int32

	// gen invalidates timer callbacks that were already in flight when
	// their timer was cancelled.
	gen    uint64
	idle   clock.Handle
	tick   clock.Handle
	expire clock.Handle
}

// NewScheduler creates a Scheduler. It holds no session until Start
// restores one or Login is called.
func NewScheduler(cfg Config, deps Deps) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("session scheduler requires a store")
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewReal()
	}
	if deps.Bus == nil {
		deps.Bus = lifecycle.NewBus()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:       cfg,
		clock:     deps.Clock,
		store:     deps.Store,
		bus:       deps.Bus,
		activity:  deps.Activity,
		logger:    deps.Logger,
		announced: -1,
	}, nil
}

// do runs fn under the lock and then delivers whatever it queued.
//
// When fn detached the activity source, do also waits for callbacks still
// in flight, unless it runs inside one of them: such a callback would be
// waiting on itself. The watch guard keeps those callbacks inert anyway.
func (s *Scheduler) do(fn func(now time.Time)) {
	s.mu.Lock()
	fn(s.clock.Now())
	drain := s.drain
	s.drain = false
	s.mu.Unlock()

	if drain && s.signals.Load() == 0 {
		s.activity.Wait()
	}
	s.bus.Flush()
}

// =============================================================================
// COMMANDS
// =============================================================================

// Start restores a persisted session, if any, and returns whether one was
// restored. Restoring does not write to storage. Calling Start again is a
// no-op until Stop.
func (s *Scheduler) Start() bool {
	restored := false
	s.do(func(now time.Time) {
		if s.started {
			return
		}
		s.started = true
		sess := s.store.Load()
		if sess == nil {
			return
		}
		s.beginLocked(*sess, now)
		restored = true
		s.logger.Info("session restored",
			zap.String("user", sess.UserID),
			zap.String("episode", s.episode))
	})
	return restored
}

// Stop releases timers and the activity source. The persisted session is
// kept so the next Start restores it. Pending events are dropped.
func (s *Scheduler) Stop() {
	s.do(func(time.Time) {
		if s.state != LoggedOut {
			s.bus.Discard(s.episode)
		}
		s.cancelTimersLocked()
		s.resetLocked()
		s.started = false
	})
}

// Login persists sess and enters Active. An existing session is replaced
// without any events for it. On error the state is unchanged.
func (s *Scheduler) Login(sess Session) error {
	sess = sess.Normalized()
	if err := sess.Validate(); err != nil {
		return err
	}

	var err error
	s.do(func(now time.Time) {
		if sess.IssuedAt.IsZero() {
			sess.IssuedAt = now
		}
		if err = s.store.Save(sess); err != nil {
			return
		}
		if s.state != LoggedOut {
			s.bus.Discard(s.episode)
		}
		s.beginLocked(sess, now)
		s.logger.Info("session started",
			zap.String("user", sess.UserID),
			zap.String("episode", s.episode))
	})
	return err
}

// Logout clears the session without publishing anything. Events still
// queued for the session are dropped. Idempotent.
func (s *Scheduler) Logout() {
	s.do(func(now time.Time) {
		if s.state == LoggedOut {
			return
		}
		s.bus.Discard(s.episode)
		user := s.session.UserID
		s.finishLocked()
		s.logger.Info("session ended", zap.String("user", user), zap.String("reason", "logout"))
	})
}

// Extend dismisses the warning and restarts the silent period. Outside
// Warning it does nothing.
func (s *Scheduler) Extend() {
	s.do(func(now time.Time) {
		if s.state != Warning {
			s.logger.Debug("extend ignored", zap.Stringer("state", s.state))
			return
		}
		s.resumeLocked(now)
	})
}

// OnActivity records a user interaction reported outside the activity
// source.
func (s *Scheduler) OnActivity() {
	s.do(s.activityLocked)
}

// onSignal is the callback handed to the activity source for one watch.
func (s *Scheduler) onSignal(watch uint64) {
	s.signals.Add(1)
	defer s.signals.Add(-1)
	s.do(func(now time.Time) {
		if watch != s.watch {
			return
		}
		s.activityLocked(now)
	})
}

func (s *Scheduler) activityLocked(now time.Time) {
	switch s.state {
	case Active:
		if s.cfg.ResumePolicy == WallClock && now.Sub(s.lastActivity) >= s.cfg.InactivityTimeout {
			// The timers slept through the whole budget.
			s.logger.Info("activity after inactivity budget elapsed",
				zap.Duration("idle", now.Sub(s.lastActivity)))
			s.enterWarningLocked(now, 0)
			return
		}
		s.lastActivity = now
		if s.limiter == nil || s.limiter.AllowN(now, 1) {
			s.armIdleLocked(s.cfg.SilentPeriod())
		}
	case Warning:
		s.resumeLocked(now)
	}
}

// =============================================================================
// TRANSITIONS (mu held)
// =============================================================================

func (s *Scheduler) beginLocked(sess Session, now time.Time) {
	s.cancelTimersLocked()
	wasLoggedOut := s.state == LoggedOut

	s.state = Active
	s.session = &sess
	s.episode = uuid.NewString()
	s.startedAt = now
	s.lastActivity = now
	s.countdown = nil
	s.announced = -1
	s.limiter = nil
	if s.cfg.ActivityDebounce > 0 {
		s.limiter = rate.NewLimiter(rate.Every(s.cfg.ActivityDebounce), 1)
		s.limiter.AllowN(now, 1)
	}
	s.armIdleLocked(s.cfg.SilentPeriod())

	if wasLoggedOut && s.activity != nil {
		s.watch++
		watch := s.watch
		s.activity.Start(func() { s.onSignal(watch) })
	}
}

// resumeLocked handles activity or an explicit extend during Warning.
func (s *Scheduler) resumeLocked(now time.Time) {
	if s.cfg.ResumePolicy == WallClock && !now.Before(s.countdown.Deadline) {
		s.expireLocked(now)
		return
	}

	s.cancelTimersLocked()
	s.state = Active
	s.countdown = nil
	s.announced = -1
	s.lastActivity = now
	if s.limiter != nil {
		s.limiter.AllowN(now, 1)
	}
	s.armIdleLocked(s.cfg.SilentPeriod())
	s.emitLocked(lifecycle.SessionExtended, 0, now)
	s.logger.Info("session extended", zap.String("episode", s.episode))
}

// enterWarningLocked starts a countdown of remaining. A non-positive
// remaining shows the warning at zero and expires immediately.
func (s *Scheduler) enterWarningLocked(now time.Time, remaining time.Duration) {
	s.cancelTimersLocked()
	if remaining < 0 {
		remaining = 0
	}
	secs := ceilSeconds(remaining)
	s.state = Warning
	s.countdown = &Countdown{
		SecondsRemaining: secs,
		StartedAt:        now,
		Deadline:         now.Add(remaining),
	}
	s.announced = secs
	s.emitLocked(lifecycle.WarningShown, secs, now)
	s.logger.Info("inactivity warning",
		zap.String("episode", s.episode),
		zap.Int("seconds_remaining", secs))

	if remaining == 0 {
		s.expireLocked(now)
		return
	}

	gen := s.gen
	s.tick = s.clock.Every(time.Second, func() { s.onTick(gen) })
	s.expire = s.clock.After(remaining, func() { s.onExpire(gen) })
}

// expireLocked finishes the countdown and clears the session.
func (s *Scheduler) expireLocked(now time.Time) {
	s.cancelTimersLocked()
	s.state = Expired
	if s.announced != 0 {
		if s.countdown != nil {
			s.countdown.SecondsRemaining = 0
		}
		s.announced = 0
		s.emitLocked(lifecycle.CountdownTick, 0, now)
	}
	s.emitLocked(lifecycle.SessionExpired, 0, now)

	user := s.session.UserID
	s.finishLocked()
	s.logger.Info("session ended", zap.String("user", user), zap.String("reason", "inactivity"))
}

// finishLocked performs the logout side effects and lands in LoggedOut.
func (s *Scheduler) finishLocked() {
	s.cancelTimersLocked()
	if err := s.store.Clear(); err != nil {
		s.logger.Error("failed to clear persisted session", zap.Error(err))
	}
	s.resetLocked()
}

// resetLocked drops the in-memory session and detaches the activity
// source. The caller's unlock waits for callbacks in flight.
func (s *Scheduler) resetLocked() {
	if s.state != LoggedOut && s.activity != nil {
		s.activity.Detach()
		s.watch++
		s.drain = true
	}
	s.state = LoggedOut
	s.session = nil
	s.countdown = nil
	s.announced = -1
	s.limiter = nil
	s.startedAt = time.Time{}
	s.lastActivity = time.Time{}
}

func (s *Scheduler) armIdleLocked(d time.Duration) {
	s.cancelTimersLocked()
	gen := s.gen
	s.idle = s.clock.After(d, func() { s.onIdle(gen) })
}

// cancelTimersLocked stops every timer and bumps gen so callbacks already
// waiting on mu see themselves as stale.
func (s *Scheduler) cancelTimersLocked() {
	for _, h := range []clock.Handle{s.idle, s.tick, s.expire} {
		if h != nil {
			h.Cancel()
		}
	}
	s.idle, s.tick, s.expire = nil, nil, nil
	s.gen++
}

func (s *Scheduler) emitLocked(kind lifecycle.Kind, secs int, now time.Time) {
	s.bus.Enqueue(lifecycle.Event{
		Kind:             kind,
		SecondsRemaining: secs,
		At:               now,
		Episode:          s.episode,
	})
}

// =============================================================================
// TIMER CALLBACKS
// =============================================================================

func (s *Scheduler) onIdle(gen uint64) {
	s.do(func(now time.Time) {
		if gen != s.gen || s.state != Active {
			return
		}
		silent := s.cfg.SilentPeriod()
		idle := now.Sub(s.lastActivity)
		if idle < silent {
			// Activity inside the debounce window moved lastActivity
			// without re-arming.
			s.armIdleLocked(silent - idle)
			return
		}

		remaining := s.cfg.WarningDuration
		if s.cfg.ResumePolicy == WallClock {
			remaining = s.cfg.InactivityTimeout - idle
		}
		s.enterWarningLocked(now, remaining)
	})
}

func (s *Scheduler) onTick(gen uint64) {
	s.do(func(now time.Time) {
		if gen != s.gen || s.state != Warning {
			return
		}
		next := s.countdown.SecondsRemaining - 1
		if s.cfg.ResumePolicy == WallClock {
			if left := ceilSeconds(s.countdown.Deadline.Sub(now)); left < next {
				next = left
			}
		}
		if next <= 0 {
			s.expireLocked(now)
			return
		}
		s.countdown.SecondsRemaining = next
		s.announced = next
		s.emitLocked(lifecycle.CountdownTick, next, now)
	})
}

func (s *Scheduler) onExpire(gen uint64) {
	s.do(func(now time.Time) {
		if gen != s.gen || s.state != Warning {
			return
		}
		s.expireLocked(now)
	})
}

// =============================================================================
// OBSERVATION
// =============================================================================

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SecondsRemaining returns the countdown value; ok is false outside Warning.
func (s *Scheduler) SecondsRemaining() (secs int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown == nil {
		return 0, false
	}
	return s.countdown.SecondsRemaining, true
}

// Session returns the current session; ok is false when logged out.
func (s *Scheduler) Session() (sess Session, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// Episode returns the id of the current login, or "" when logged out.
func (s *Scheduler) Episode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == LoggedOut {
		return ""
	}
	return s.episode
}

// Config returns the scheduler timing.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Subscribe registers fn for lifecycle events.
func (s *Scheduler) Subscribe(fn lifecycle.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(fn)
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is a point-in-time view of the scheduler.
type Status struct {
	State            State
	Episode          string
	UserID           string
	DisplayName      string
	StartTime        time.Time
	Duration         time.Duration
	IdleTime         time.Duration
	RemainingTime    time.Duration
	SecondsRemaining int
	InWarning        bool
}

// Status returns the current status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state}
	if s.session == nil {
		return st
	}

	now := s.clock.Now()
	st.Episode = s.episode
	st.UserID = s.session.UserID
	st.DisplayName = s.session.Name()
	st.StartTime = s.startedAt
	st.Duration = now.Sub(s.startedAt)
	st.IdleTime = now.Sub(s.lastActivity)
	st.RemainingTime = s.cfg.InactivityTimeout - st.IdleTime
	if s.countdown != nil {
		st.InWarning = true
		st.SecondsRemaining = s.countdown.SecondsRemaining
		st.RemainingTime = s.countdown.Deadline.Sub(now)
	}
	if st.RemainingTime < 0 {
		st.RemainingTime = 0
	}
	return st
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}
