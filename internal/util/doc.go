// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the todo-tui packages.
//
//   - AtomicWriteFileWithDir: crash-safe file replacement used by the file
//     storage backend and config saving
//   - StringWidth, TruncateWidth: cell-width aware text handling
//     for display names (github.com/mattn/go-runewidth)
//   - IntToString
package util
