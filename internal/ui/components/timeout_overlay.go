// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/ui/i18n"
	"github.com/jeranaias/todo-tui/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// criticalSeconds turns the countdown red.
const criticalSeconds = 10

// TimeoutOverlay renders the inactivity warning countdown and, after the
// session expired, a notice explaining why the user was signed out.
// It holds no timers; the owner feeds it the scheduler's countdown.
type TimeoutOverlay struct {
	theme *styles.Theme
	loc   *i18n.Locale
	bar   progress.Model

	visible bool
	expired bool
	seconds int
	total   int
	idle    time.Duration

	width  int
	height int
}

// NewTimeoutOverlay creates a hidden overlay.
func NewTimeoutOverlay(theme *styles.Theme, loc *i18n.Locale) TimeoutOverlay {
	from, to := styles.Amber.Dark, styles.Rose.Dark
	if !theme.IsDark {
		from, to = styles.Amber.Light, styles.Rose.Light
	}
	return TimeoutOverlay{
		theme: theme,
		loc:   loc,
		bar:   progress.New(progress.WithGradient(to, from), progress.WithoutPercentage()),
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *TimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetTotal sets the full length of a countdown in seconds, the value the
// progress bar is measured against.
func (o *TimeoutOverlay) SetTotal(seconds int) {
	o.total = seconds
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Show displays the warning with secs remaining.
func (o *TimeoutOverlay) Show(secs int) {
	o.visible = true
	o.expired = false
	o.seconds = secs
}

// SetSeconds updates the countdown.
func (o *TimeoutOverlay) SetSeconds(secs int) {
	o.seconds = secs
}

// ShowExpired switches to the expired notice. idle is the inactivity
// timeout that was reached.
func (o *TimeoutOverlay) ShowExpired(idle time.Duration) {
	o.visible = true
	o.expired = true
	o.seconds = 0
	o.idle = idle
}

// Hide hides the overlay.
func (o *TimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// IsVisible returns whether the overlay is currently visible.
func (o TimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the expired notice is showing.
func (o TimeoutOverlay) IsExpired() bool {
	return o.expired
}

// Seconds returns the countdown value on display.
func (o TimeoutOverlay) Seconds() int {
	return o.seconds
}

// Percent returns the fraction of the countdown still left.
func (o TimeoutOverlay) Percent() float64 {
	if o.total <= 0 {
		return 0
	}
	p := float64(o.seconds) / float64(o.total)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update tracks the window size. Input handling belongs to the owner, which
// turns every key press into session activity.
func (o TimeoutOverlay) Update(msg tea.Msg) (TimeoutOverlay, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		o.width = msg.Width
		o.height = msg.Height
	}
	return o, nil
}

// View renders the overlay, or "" when hidden.
func (o TimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.viewExpired()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o TimeoutOverlay) viewWarning() string {
	width, height, boxWidth := o.dimensions()
	t := o.theme

	countStyle := t.OverlayCountdown
	if o.seconds <= criticalSeconds {
		countStyle = t.OverlayCritical
	}

	bar := o.bar
	bar.Width = boxWidth - 8

	body := lipgloss.NewStyle().Width(boxWidth - 8).Align(lipgloss.Center)
	parts := []string{
		t.OverlayTitle.Render(styles.StatusIndicators.Warning + " " + o.loc.T(i18n.SessionWarning)),
		"",
		body.Render(o.loc.T(i18n.LoggedOutIn, countStyle.Render(formatTimeRemaining(o.seconds)))),
		"",
		bar.ViewAs(o.Percent()),
		"",
		body.Render(t.OverlayHint.Render(o.loc.T(i18n.PressAnyKey))),
		"",
		t.OverlayButton.Render(o.loc.T(i18n.ExtendSession)),
	}

	box := t.OverlayBox.
		BorderForeground(countStyle.GetForeground()).
		Width(boxWidth).
		Render(lipgloss.JoinVertical(lipgloss.Center, parts...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim))
}

func (o TimeoutOverlay) viewExpired() string {
	width, height, boxWidth := o.dimensions()
	t := o.theme

	body := lipgloss.NewStyle().Width(boxWidth - 8).Align(lipgloss.Center)
	parts := []string{
		t.StateExpired.Render(styles.StatusIndicators.Error + " " + o.loc.T(i18n.SessionExpired)),
		"",
		body.Render(o.loc.T(i18n.ExpiredDetail, session.FormatDuration(o.idle))),
		"",
		t.OverlayHint.Render(o.loc.T(i18n.ExpiredHelp)),
	}

	box := t.OverlayBox.
		BorderForeground(styles.Rose).
		Width(boxWidth).
		Render(lipgloss.JoinVertical(lipgloss.Center, parts...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim))
}

// dimensions returns the screen size (with defaults before the first
// WindowSizeMsg) and a box width clamped to 40..60 columns.
func (o TimeoutOverlay) dimensions() (width, height, box int) {
	width, height = o.width, o.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 24
	}
	box = width - 8
	if box < 40 {
		box = 40
	}
	if box > 60 {
		box = 60
	}
	return width, height, box
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimeRemaining formats seconds as M:SS.
func formatTimeRemaining(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
