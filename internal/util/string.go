// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Display names are user supplied and may contain wide (CJK, emoji)
// or combining characters. Widths are measured in terminal cells, never
// bytes or runes, so truncation never splits a character and columns line up.

// IntToString converts an int to string.
func IntToString(i int) string {
	return strconv.Itoa(i)
}

// StringWidth returns the display width of s in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateWidth shortens s to at most maxWidth cells, ending in "..." when
// something was cut and there is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
