// Package table renders rows of strings as a fixed-width text table.
//
// Columns carry a priority: when the table does not fit the requested
// width, the lowest-priority columns are narrowed first, down to their
// minimum width. Cells may span several lines and may contain ANSI color
// sequences, which take no room.
package table

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// ErrRowWidth is returned by AddRow when the number of cells does not
// match the number of columns.
var ErrRowWidth = errors.New("row length does not match column count")

// DefaultMaxWidth is the width Format is usually called with.
const DefaultMaxWidth = 80

// IndexKey is the column key sorted numerically.
const IndexKey = "Index"

// Column describes one table column.
type Column struct {
	Key       string
	Title     string
	Priority  int // higher resists shrinking
	MinWidth  int
	LeftAlign bool
}

// ColumnOption adjusts a column added with AddColumn.
type ColumnOption func(*Column)

// Priority sets the shrink priority of a column. Default 1.
func Priority(p int) ColumnOption {
	return func(c *Column) { c.Priority = p }
}

// MinWidth sets the narrowest width a column shrinks to. Default 3.
func MinWidth(w int) ColumnOption {
	return func(c *Column) { c.MinWidth = w }
}

// RightAlign right-aligns the column's cells.
func RightAlign() ColumnOption {
	return func(c *Column) { c.LeftAlign = false }
}

// Formatter accumulates columns and rows and renders them. A Formatter
// is meant to be built, formatted and dropped.
type Formatter struct {
	columns []Column
	rows    [][]string
	sortCol int
}

// New returns an empty Formatter.
func New() *Formatter {
	return &Formatter{}
}

// AddColumn appends a column. The minimum width is clamped to at least 1.
func (f *Formatter) AddColumn(key, title string, opts ...ColumnOption) {
	c := Column{Key: key, Title: title, Priority: 1, MinWidth: 3, LeftAlign: true}
	for _, o := range opts {
		o(&c)
	}
	if c.MinWidth < 1 {
		c.MinWidth = 1
	}
	f.columns = append(f.columns, c)
}

// AddRow appends a row with one cell per column. A row of the wrong
// length is dropped and ErrRowWidth returned.
func (f *Formatter) AddRow(cells ...string) error {
	if len(cells) != len(f.columns) {
		slog.Debug("table row dropped", "cells", len(cells), "columns", len(f.columns))
		return fmt.Errorf("%w: %d cells, %d columns", ErrRowWidth, len(cells), len(f.columns))
	}
	f.rows = append(f.rows, append([]string(nil), cells...))
	return nil
}

// SetSortColumn selects the column, by position, rows are sorted by.
// Default 0.
func (f *Formatter) SetSortColumn(i int) {
	f.sortCol = i
}

// Columns returns the column descriptors.
func (f *Formatter) Columns() []Column {
	return f.columns
}

// Len returns the number of admitted rows.
func (f *Formatter) Len() int {
	return len(f.rows)
}

// Format renders the table no wider than maxWidth where the columns'
// minimum widths allow it.
func (f *Formatter) Format(maxWidth int) string {
	if len(f.columns) == 0 {
		return ""
	}
	widths := f.widths(maxWidth)

	var b strings.Builder
	titles := make([]string, len(f.columns))
	dashes := make([]string, len(f.columns))
	for i, c := range f.columns {
		titles[i] = c.Title
		dashes[i] = strings.Repeat("-", widths[i])
	}
	f.writeLine(&b, titles, widths)
	f.writeLine(&b, dashes, widths)

	for _, row := range f.sortedRows() {
		cells := make([][]string, len(row))
		height := 1
		for i, cell := range row {
			cells[i] = strings.Split(cell, "\n")
			height = max(height, len(cells[i]))
		}
		line := make([]string, len(row))
		for l := 0; l < height; l++ {
			for i := range cells {
				line[i] = ""
				if l < len(cells[i]) {
					line[i] = cells[i][l]
				}
			}
			f.writeLine(&b, line, widths)
		}
	}
	return b.String()
}

func (f *Formatter) writeLine(b *strings.Builder, cells []string, widths []int) {
	var line strings.Builder
	for i, c := range f.columns {
		if i > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(Pad(cells[i], widths[i], c.LeftAlign))
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
	b.WriteByte('\n')
}

// widths computes the natural column widths, then narrows the
// lowest-priority columns one step at a time until the table fits or no
// column is above its minimum.
func (f *Formatter) widths(maxWidth int) []int {
	widths := make([]int, len(f.columns))
	for i, c := range f.columns {
		widths[i] = VisibleWidth(c.Title)
	}
	for _, row := range f.rows {
		for i, cell := range row {
			for _, line := range strings.Split(cell, "\n") {
				widths[i] = max(widths[i], VisibleWidth(line))
			}
		}
	}

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	if total <= maxWidth {
		return widths
	}

	order := make([]int, len(f.columns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.columns[order[a]].Priority < f.columns[order[b]].Priority
	})

	for total > maxWidth {
		shrunk := false
		for _, i := range order {
			if widths[i] > f.columns[i].MinWidth {
				widths[i]--
				total--
				shrunk = true
				break
			}
		}
		if !shrunk {
			break
		}
	}
	return widths
}

// sortedRows returns the rows stably sorted by the sort column. The
// Index column sorts numerically, with unparsable values last.
func (f *Formatter) sortedRows() [][]string {
	rows := append([][]string(nil), f.rows...)
	col := f.sortCol
	if col < 0 || col >= len(f.columns) {
		return rows
	}
	if f.columns[col].Key != IndexKey {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a][col] < rows[b][col] })
		return rows
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return indexLess(rows[a][col], rows[b][col])
	})
	return rows
}

func indexLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
