// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// SCHEDULER STATE
// =============================================================================

// State is the scheduler's lifecycle state.
type State int

const (
	// LoggedOut holds no session.
	LoggedOut State = iota
	// Active holds a session and runs the silent-idle timer.
	Active
	// Warning shows the countdown before forced logout.
	Warning
	// Expired is transient: it only exists while logout side effects run.
	Expired
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case Active:
		return "active"
	case Warning:
		return "warning"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Countdown exists only while in Warning.
type Countdown struct {
	SecondsRemaining int
	StartedAt        time.Time
	Deadline         time.Time
}

// =============================================================================
// RESUME POLICY
// =============================================================================

// ResumePolicy decides how a long gap between timer firings (host sleep) is
// treated.
type ResumePolicy int

const (
	// WallClock measures idle time against wall-clock timestamps. Activity
	// arriving after the budget has elapsed expires the session instead of
	// renewing it, and a late warning only gets the budget that is left.
	WallClock ResumePolicy = iota
	// TimerCount trusts the timers alone: a late warning gets the full
	// countdown and activity always renews.
	TimerCount
)

// String returns the config spelling of the policy.
func (p ResumePolicy) String() string {
	switch p {
	case WallClock:
		return "wall-clock"
	case TimerCount:
		return "timer-count"
	default:
		return fmt.Sprintf("ResumePolicy(%d)", int(p))
	}
}

// ParseResumePolicy parses "wall-clock" or "timer-count".
func ParseResumePolicy(s string) (ResumePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wall-clock", "wallclock", "":
		return WallClock, nil
	case "timer-count", "timercount":
		return TimerCount, nil
	default:
		return WallClock, fmt.Errorf("unknown resume policy %q (valid: wall-clock, timer-count)", s)
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the scheduler timing.
type Config struct {
	// InactivityTimeout is the whole idle budget (default: 30 minutes).
	InactivityTimeout time.Duration

	// WarningDuration is the visible tail of the budget (default: 5 minutes).
	WarningDuration time.Duration

	// ResumePolicy selects wall-clock or timer-count semantics.
	ResumePolicy ResumePolicy

	// ActivityDebounce limits how often activity re-arms the silent-idle
	// timer (default: 1 second, 0 re-arms on every signal).
	ActivityDebounce time.Duration
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		InactivityTimeout: 30 * time.Minute,
		WarningDuration:   5 * time.Minute,
		ResumePolicy:      WallClock,
		ActivityDebounce:  time.Second,
	}
}

// SilentPeriod is the idle time before the warning appears.
func (c Config) SilentPeriod() time.Duration {
	return c.InactivityTimeout - c.WarningDuration
}

// Validate checks the timing relationship.
func (c Config) Validate() error {
	var errs []error
	if c.InactivityTimeout <= 0 {
		errs = append(errs, errors.New("inactivity timeout must be positive"))
	}
	if c.WarningDuration <= 0 {
		errs = append(errs, errors.New("warning duration must be positive"))
	}
	if c.WarningDuration >= c.InactivityTimeout {
		errs = append(errs, errors.New("warning duration must be shorter than the inactivity timeout"))
	}
	if c.ActivityDebounce < 0 {
		errs = append(errs, errors.New("activity debounce must not be negative"))
	}
	return errors.Join(errs...)
}

// ceilSeconds rounds d up to whole seconds; non-positive durations are 0.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
