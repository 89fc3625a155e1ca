package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// VisibleWidth returns the number of terminal columns s occupies,
// ignoring ANSI escape sequences.
func VisibleWidth(s string) int {
	return lipgloss.Width(s)
}

// Truncate cuts s to at most width visible columns. Escape sequences are
// copied verbatim wherever they occur, including after the cut, so that
// trailing resets survive.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "")
}

// Pad fits s into exactly width visible columns, truncating or padding
// with spaces on the side opposite the alignment.
func Pad(s string, width int, leftAlign bool) string {
	s = Truncate(s, width)
	gap := width - VisibleWidth(s)
	if gap <= 0 {
		return s
	}
	if leftAlign {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}
