// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the todo-tui
// screens.
//
//   - LoginForm: user id, display name and token inputs (bubbles/textinput).
//     A pasted JWT fills the identity fields from its claims.
//   - TimeoutOverlay: the inactivity countdown with a bubbles/progress bar,
//     and the notice shown after an automatic sign out.
//   - StatusBar: session state, time to automatic sign out and the user's
//     display name cut to the terminal width.
//
// Components hold no timers and never talk to the scheduler; the app model
// feeds them state and routes input.
package components
