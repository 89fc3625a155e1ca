//go:build linux

package routing

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/psaab/netcli/pkg/netconf"
)

func (m *Manager) GetArpEntries() ([]netconf.Neighbor, error) {
	return m.neighbors(netlink.FAMILY_V4)
}

func (m *Manager) SetArpEntry(n netconf.Neighbor) error {
	if !n.IP.Is4() {
		return fmt.Errorf("arp: %s is not an IPv4 address", n.IP)
	}
	return m.setNeighbor(netlink.FAMILY_V4, n)
}

func (m *Manager) DeleteArpEntry(n netconf.Neighbor) error {
	return m.deleteNeighbor(netlink.FAMILY_V4, n)
}

func (m *Manager) GetNdpEntries() ([]netconf.Neighbor, error) {
	return m.neighbors(netlink.FAMILY_V6)
}

func (m *Manager) SetNdpEntry(n netconf.Neighbor) error {
	if !n.IP.Is6() || n.IP.Is4In6() {
		return fmt.Errorf("ndp: %s is not an IPv6 address", n.IP)
	}
	return m.setNeighbor(netlink.FAMILY_V6, n)
}

func (m *Manager) DeleteNdpEntry(n netconf.Neighbor) error {
	return m.deleteNeighbor(netlink.FAMILY_V6, n)
}

func (m *Manager) neighbors(family int) ([]netconf.Neighbor, error) {
	s, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	list, err := m.nlHandle.NeighList(0, family)
	if err != nil {
		return nil, fmt.Errorf("list neighbors: %w", err)
	}
	out := make([]netconf.Neighbor, 0, len(list))
	for _, n := range list {
		if n.State&(unix.NUD_NOARP|unix.NUD_FAILED) != 0 {
			continue
		}
		ip, ok := addrFromIP(n.IP)
		if !ok || ip.IsMulticast() {
			continue
		}
		out = append(out, netconf.Neighbor{
			IP:        ip,
			MAC:       n.HardwareAddr,
			Interface: s.name(n.LinkIndex),
			Permanent: n.State&unix.NUD_PERMANENT != 0,
			State:     nudName(n.State),
		})
	}
	return out, nil
}

// nudName renders a NUD state bit set.
func nudName(state int) string {
	switch {
	case state&unix.NUD_PERMANENT != 0:
		return "permanent"
	case state&unix.NUD_REACHABLE != 0:
		return "reachable"
	case state&unix.NUD_STALE != 0:
		return "stale"
	case state&unix.NUD_DELAY != 0:
		return "delay"
	case state&unix.NUD_PROBE != 0:
		return "probe"
	case state&unix.NUD_INCOMPLETE != 0:
		return "incomplete"
	case state&unix.NUD_FAILED != 0:
		return "failed"
	default:
		return "none"
	}
}

// neighborLink resolves the interface of n. Without an explicit
// interface, the one with a connected prefix covering n.IP is used.
func (m *Manager) neighborLink(n netconf.Neighbor) (netlink.Link, error) {
	if n.Interface != "" {
		return m.linkByName(n.Interface)
	}
	addrs, err := m.nlHandle.AddrList(nil, netlink.FAMILY_ALL)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	for _, a := range addrs {
		p, ok := prefixFromIPNet(a.IPNet)
		if !ok || !p.Masked().Contains(n.IP) {
			continue
		}
		return m.nlHandle.LinkByIndex(a.LinkIndex)
	}
	return nil, fmt.Errorf("%s: no interface on a connected network", n.IP)
}

func (m *Manager) setNeighbor(family int, n netconf.Neighbor) error {
	l, err := m.neighborLink(n)
	if err != nil {
		return err
	}
	state := unix.NUD_REACHABLE
	if n.Permanent {
		state = unix.NUD_PERMANENT
	}
	neigh := &netlink.Neigh{
		LinkIndex:    l.Attrs().Index,
		Family:       family,
		State:        state,
		IP:           net.IP(n.IP.AsSlice()),
		HardwareAddr: n.MAC,
	}
	if err := m.nlHandle.NeighSet(neigh); err != nil {
		return fmt.Errorf("set neighbor %s: %w", n.IP, err)
	}
	slog.Info("neighbor set", "ip", n.IP, "mac", n.MAC, "interface", l.Attrs().Name)
	return nil
}

func (m *Manager) deleteNeighbor(family int, n netconf.Neighbor) error {
	index, err := m.neighborIndex(family, n)
	if err != nil {
		return err
	}
	neigh := &netlink.Neigh{
		LinkIndex: index,
		Family:    family,
		IP:        net.IP(n.IP.AsSlice()),
	}
	if err := m.nlHandle.NeighDel(neigh); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("neighbor %s: %w", n.IP, netconf.ErrNotFound)
		}
		return fmt.Errorf("delete neighbor %s: %w", n.IP, err)
	}
	slog.Info("neighbor deleted", "ip", n.IP)
	return nil
}

// neighborIndex finds the ifindex holding the entry for n.IP.
func (m *Manager) neighborIndex(family int, n netconf.Neighbor) (int, error) {
	if n.Interface != "" {
		l, err := m.linkByName(n.Interface)
		if err != nil {
			return 0, err
		}
		return l.Attrs().Index, nil
	}
	list, err := m.nlHandle.NeighList(0, family)
	if err != nil {
		return 0, fmt.Errorf("list neighbors: %w", err)
	}
	for _, e := range list {
		if ip, ok := addrFromIP(e.IP); ok && ip == n.IP {
			return e.LinkIndex, nil
		}
	}
	return 0, fmt.Errorf("neighbor %s: %w", n.IP, netconf.ErrNotFound)
}
