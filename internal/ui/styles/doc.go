// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the todo-tui screens.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

  - Cyan - Brand color, header
  - Purple - Focused form fields
  - Emerald - Active session
  - Amber - Inactivity warning and countdown
  - Rose - Errors, expired session, last ten seconds of a countdown

Status messages always carry an ASCII indicator ([OK], [X], [!], [i]) next to
the color so they remain readable for colorblind users and on monochrome
terminals.

# Theme (theme.go)

NewTheme builds every lipgloss.Style the screens use. The mode comes from the
ui.theme setting: "dark" and "light" force the AdaptiveColor variant, "auto"
asks the terminal through termenv. SetRTL right-aligns body text for Hebrew
and Arabic.
*/
package styles
