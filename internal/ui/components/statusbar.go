// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/ui/i18n"
	"github.com/jeranaias/todo-tui/internal/ui/styles"
	"github.com/jeranaias/todo-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: session state, user and time to automatic
// sign out.
type StatusBar struct {
	Status session.Status
	Width  int
	theme  *styles.Theme
	loc    *i18n.Locale
}

// NewStatusBar creates a StatusBar component.
func NewStatusBar(theme *styles.Theme, loc *i18n.Locale) *StatusBar {
	return &StatusBar{Width: 80, theme: theme, loc: loc}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the session snapshot on display.
func (s *StatusBar) SetStatus(st session.Status) {
	s.Status = st
}

// StateLabel returns the indicator and localized name of a state, styled.
// ACCESSIBILITY: Every state carries a shape indicator besides its color.
func StateLabel(theme *styles.Theme, loc *i18n.Locale, state session.State) string {
	switch state {
	case session.Active:
		return theme.StateActive.Render(styles.StatusIndicators.Active + " " + loc.T(i18n.StateActive))
	case session.Warning:
		return theme.StateWarning.Render(styles.StatusIndicators.Warning + " " + loc.T(i18n.StateWarning))
	case session.Expired:
		return theme.StateExpired.Render(styles.StatusIndicators.Error + " " + loc.T(i18n.StateExpired))
	default:
		return theme.Meta.Render(styles.StatusIndicators.Pending + " " + loc.T(i18n.StateLoggedOut))
	}
}

// View renders the status bar. Narrow terminals drop the timing section;
// the display name is cut to fit what is left.
func (s *StatusBar) View() string {
	t := s.theme
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	parts := []string{StateLabel(t, s.loc, s.Status.State)}
	if s.Status.State != session.LoggedOut && s.Width >= 60 {
		remaining := session.FormatDuration(s.Status.RemainingTime)
		parts = append(parts, t.ShortcutDesc.Render(s.loc.T(i18n.AutoSignOutIn, remaining)))
	}

	fixed := lipgloss.Width(strings.Join(parts, sep)) + lipgloss.Width(sep) + 2
	if name := s.Status.DisplayName; name != "" {
		room := s.Width - fixed
		if room < 4 {
			room = 4
		}
		parts = append(parts, t.UserName.Render(util.TruncateWidth(name, room)))
	}

	if s.theme.RTL {
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
	}

	return t.StatusBar.
		Width(s.Width).
		Align(t.TextAlign()).
		Render(strings.Join(parts, sep))
}
