// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "github.com/mattn/go-runewidth"

// TruncateWidth shortens s to at most width display cells, ending with "..."
// when anything was cut. Wide runes count as two cells.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads s with spaces to width display cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// ShortID abbreviates long identifiers (addresses, txids) as "ABCDEF...WXYZ".
func ShortID(id string, head, tail int) string {
	if head < 0 || tail < 0 || len(id) <= head+tail+3 {
		return id
	}
	return id[:head] + "..." + id[len(id)-tail:]
}
