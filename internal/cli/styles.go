// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared output styles for the non-interactive commands.
//
// Colors are disabled for non-TTY output and when NO_COLOR is set.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle - command titles (cyan)
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// LabelStyle - field labels, fixed width
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(18)

	// ValueStyle - regular values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// SuccessStyle - [OK] markers
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle - [Error] markers
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle - countdown warnings in the shell
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	// DimStyle - hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

// =============================================================================
// HELPERS
// =============================================================================

// printOK writes a success line.
func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("[OK]"), fmt.Sprintf(format, args...))
}

// printWarn writes a warning line.
func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("[!]"), fmt.Sprintf(format, args...))
}

// printField writes one aligned "label value" line.
func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s%s\n", LabelStyle.Render(label), ValueStyle.Render(value))
}

// printTitle writes a title followed by an underline of the same width.
func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	fmt.Fprintln(w, DimStyle.Render(strings.Repeat("=", lipgloss.Width(title))))
}
