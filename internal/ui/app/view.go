// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/todo-tui/internal/session"
	"github.com/jeranaias/todo-tui/internal/ui/components"
	"github.com/jeranaias/todo-tui/internal/ui/i18n"
	"github.com/jeranaias/todo-tui/internal/ui/styles"
	"github.com/jeranaias/todo-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the current screen. The timeout overlay replaces the whole
// screen while it is visible.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	header := m.renderHeader()
	status := m.status.View()

	var body string
	switch m.screen {
	case ScreenHome:
		body = m.renderHome()
	default:
		body = m.form.View()
	}

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(status)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	hAlign := lipgloss.Center
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		hAlign = m.theme.TextAlign()
	}
	placed := lipgloss.Place(m.width, bodyHeight, hAlign, lipgloss.Center, body)

	return lipgloss.JoinVertical(lipgloss.Left, header, placed, status)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderBrand.Render("todo-tui") + "  " + m.loc.T(i18n.AppTitle)
	return m.theme.Header.
		Width(m.width).
		Align(m.theme.TextAlign()).
		Render(title)
}

func (m Model) renderHome() string {
	t := m.theme
	st := m.status.Status

	cardWidth := m.width - 8
	if cardWidth > 60 {
		cardWidth = 60
	}
	if cardWidth < 20 {
		cardWidth = 20
	}
	// Border and padding take six columns.
	name := util.TruncateWidth(st.DisplayName, cardWidth-6)

	lines := []string{
		t.UserName.Render(m.loc.T(i18n.Welcome, name)),
		"",
		components.StateLabel(t, m.loc, st.State),
		t.Meta.Render(m.loc.T(i18n.SessionLength, session.FormatDuration(st.Duration))),
		t.Meta.Render(m.loc.T(i18n.IdleFor, session.FormatDuration(st.IdleTime))),
		t.Meta.Render(m.loc.T(i18n.AutoSignOutIn, session.FormatDuration(st.RemainingTime))),
		"",
		t.FormHint.Render(m.loc.T(i18n.HomeHelp)),
	}
	return t.Card.Width(cardWidth).Render(lipgloss.JoinVertical(t.TextAlign(), lines...))
}
