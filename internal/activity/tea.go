// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package activity

import tea "github.com/charmbracelet/bubbletea"

// =============================================================================
// BUBBLE TEA ADAPTER
// =============================================================================

// FromTeaMsg maps a Bubble Tea input message to a signal. Non-input
// messages (ticks, window size, lifecycle messages) report false.
func FromTeaMsg(msg tea.Msg) (Signal, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return Signal{Kind: KeyPress}, true
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp, tea.MouseWheelDown, tea.MouseWheelLeft, tea.MouseWheelRight:
			return Signal{Kind: Scroll}, true
		case tea.MouseMotion:
			return Signal{Kind: PointerMove}, true
		case tea.MouseLeft, tea.MouseRight, tea.MouseMiddle:
			return Signal{Kind: PointerPress}, true
		}
	}
	return Signal{}, false
}
