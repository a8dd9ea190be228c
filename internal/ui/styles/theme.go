// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeDark  = "dark"
	ModeLight = "light"
	ModeAuto  = "auto"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout
	Width  int
	Height int
	RTL    bool

	// ==========================================================================
	// HEADER / STATUS BAR
	// ==========================================================================

	Header       lipgloss.Style
	HeaderBrand  lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// LOGIN FORM
	// ==========================================================================

	FormBox      lipgloss.Style
	FormTitle    lipgloss.Style
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	FormError    lipgloss.Style
	FormHint     lipgloss.Style

	// ==========================================================================
	// HOME VIEW
	// ==========================================================================

	Card         lipgloss.Style
	UserName     lipgloss.Style
	Meta         lipgloss.Style
	StateActive  lipgloss.Style
	StateWarning lipgloss.Style
	StateExpired lipgloss.Style

	// ==========================================================================
	// TIMEOUT OVERLAY
	// ==========================================================================

	OverlayBox       lipgloss.Style
	OverlayTitle     lipgloss.Style
	OverlayCountdown lipgloss.Style
	OverlayCritical  lipgloss.Style
	OverlayHint      lipgloss.Style
	OverlayButton    lipgloss.Style
}

// NewTheme creates a theme for mode ("dark", "light" or "auto"). Forcing a
// mode also tells lipgloss which half of every AdaptiveColor to use.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ModeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	case ModeDark:
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// SetRTL switches text alignment for right-to-left languages.
func (t *Theme) SetRTL(rtl bool) {
	t.RTL = rtl
	t.initStyles()
}

// TextAlign returns the horizontal alignment for body text.
func (t *Theme) TextAlign() lipgloss.Position {
	if t.RTL {
		return lipgloss.Right
	}
	return lipgloss.Left
}

func (t *Theme) initStyles() {
	align := t.TextAlign()

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Login form
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3).
		Align(align)

	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.LabelFocused = lipgloss.NewStyle().
		Foreground(FocusRing).
		Bold(true)

	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputFocused = t.Input.
		BorderForeground(FocusRing)

	t.FormError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.FormHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Home view
	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2).
		Align(align)

	t.UserName = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.Meta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.StateActive = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StateWarning = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StateExpired = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	// Timeout overlay
	t.OverlayBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Padding(1, 3).
		Align(lipgloss.Center)

	t.OverlayTitle = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.OverlayCountdown = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.OverlayCritical = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.OverlayHint = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.OverlayButton = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Amber).
		Bold(true).
		Padding(0, 2)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
