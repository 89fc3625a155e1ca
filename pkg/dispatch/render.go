package dispatch

import (
	"net/netip"

	"github.com/charmbracelet/lipgloss"
)

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// state renders an administrative state cell, colored when enabled.
func (d *Dispatcher) state(up bool) string {
	if up {
		if d.color {
			return upStyle.Render("up")
		}
		return "up"
	}
	if d.color {
		return downStyle.Render("down")
	}
	return "down"
}

func familyOf(p netip.Prefix) string {
	if p.Addr().Is4() || p.Addr().Is4In6() {
		return "inet"
	}
	return "inet6"
}

// within reports whether dst is prefix or a more specific network inside
// it.
func within(dst, prefix netip.Prefix) bool {
	return dst.Bits() >= prefix.Bits() && prefix.Contains(dst.Addr())
}
