// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/algods/internal/util"
)

// Table lays out rows in aligned columns. Widths are measured in display
// cells, so wide runes in labels do not break alignment.
type Table struct {
	headers []string
	rows    [][]string
	// MaxCell caps any single cell; longer cells are truncated with "...".
	MaxCell int
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, MaxCell: 64}
}

// Append adds a row. Missing cells render empty; extra cells are dropped.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			w := runewidth.StringWidth(t.clip(cell))
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (t *Table) clip(cell string) string {
	if t.MaxCell > 0 {
		return util.TruncateWidth(cell, t.MaxCell)
	}
	return cell
}

// Render writes the table to w. Cells are padded before styling so escape
// codes never count toward column width.
func (t *Table) Render(w io.Writer) {
	widths := t.widths()
	const gap = "  "

	var b strings.Builder
	for i, h := range t.headers {
		if i > 0 {
			b.WriteString(gap)
		}
		b.WriteString(LabelStyle.UnsetWidth().Bold(true).Render(pad(h, widths[i], i == len(t.headers)-1)))
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	for _, row := range t.rows {
		b.Reset()
		for i, cell := range row {
			if i > 0 {
				b.WriteString(gap)
			}
			b.WriteString(pad(t.clip(cell), widths[i], i == len(row)-1))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return util.PadRight(s, width)
}
