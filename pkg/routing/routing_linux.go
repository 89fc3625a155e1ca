//go:build linux

// Package routing implements netconf.Manager on top of rtnetlink.
package routing

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/psaab/netcli/pkg/netconf"
)

// Manager reads and changes kernel network state through one netlink
// handle.
type Manager struct {
	nlHandle *netlink.Handle
}

var _ netconf.Manager = (*Manager)(nil)

// New opens a netlink handle in the current network namespace.
func New() (*Manager, error) {
	h, err := netlink.NewHandle()
	if err != nil {
		return nil, fmt.Errorf("netlink handle: %w", err)
	}
	return &Manager{nlHandle: h}, nil
}

// Close releases the netlink handle.
func (m *Manager) Close() error {
	if m.nlHandle != nil {
		m.nlHandle.Close()
		m.nlHandle = nil
	}
	return nil
}

// snapshot is one LinkList result indexed by ifindex.
type snapshot struct {
	links   []netlink.Link
	byIndex map[int]netlink.Link
}

func (m *Manager) snapshot() (*snapshot, error) {
	links, err := m.nlHandle.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	s := &snapshot{links: links, byIndex: make(map[int]netlink.Link, len(links))}
	for _, l := range links {
		s.byIndex[l.Attrs().Index] = l
	}
	return s, nil
}

func (s *snapshot) name(index int) string {
	if l, ok := s.byIndex[index]; ok {
		return l.Attrs().Name
	}
	if index == 0 {
		return ""
	}
	return strconv.Itoa(index)
}

// vrfOf returns the table of the VRF device l is enslaved to, or 0.
func (s *snapshot) vrfOf(l netlink.Link) int {
	if master, ok := s.byIndex[l.Attrs().MasterIndex].(*netlink.Vrf); ok {
		return cliTable(int(master.Table))
	}
	return 0
}

// members returns the names of the links enslaved to index, sorted.
func (s *snapshot) members(index int) []string {
	var out []string
	for _, l := range s.links {
		if l.Attrs().MasterIndex == index {
			out = append(out, l.Attrs().Name)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Manager) GetInterfaces() ([]netconf.Interface, error) {
	s, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]netconf.Interface, 0, len(s.links))
	for _, l := range s.links {
		if _, ok := l.(*netlink.Vrf); ok {
			continue
		}
		ifc, err := m.toInterface(s, l)
		if err != nil {
			return nil, err
		}
		out = append(out, ifc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (m *Manager) GetInterface(name string) (*netconf.Interface, error) {
	l, err := m.linkByName(name)
	if err != nil {
		return nil, err
	}
	s, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	ifc, err := m.toInterface(s, l)
	if err != nil {
		return nil, err
	}
	return &ifc, nil
}

func (m *Manager) linkByName(name string) (netlink.Link, error) {
	l, err := m.nlHandle.LinkByName(name)
	if err != nil {
		var nf netlink.LinkNotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("interface %s: %w", name, netconf.ErrNotFound)
		}
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}
	return l, nil
}

func (m *Manager) toInterface(s *snapshot, l netlink.Link) (netconf.Interface, error) {
	a := l.Attrs()
	ifc := netconf.Interface{
		Name:        a.Name,
		Index:       a.Index,
		Type:        linkType(l),
		Description: a.Alias,
		Up:          a.Flags&net.FlagUp != 0,
		MTU:         a.MTU,
		VRF:         s.vrfOf(l),
		Flags:       linkFlags(a.Flags),
		Options:     linkOptions(s, l),
	}
	if a.Group != 0 {
		ifc.Groups = []string{strconv.FormatUint(uint64(a.Group), 10)}
	}
	if len(a.HardwareAddr) > 0 {
		ifc.HardwareAddr = a.HardwareAddr.String()
	}
	addrs, err := m.nlHandle.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return ifc, fmt.Errorf("list addresses of %s: %w", a.Name, err)
	}
	for _, addr := range addrs {
		if p, ok := prefixFromIPNet(addr.IPNet); ok {
			ifc.Addresses = append(ifc.Addresses, p)
		}
	}
	return ifc, nil
}

func linkFlags(f net.Flags) []string {
	if f == 0 {
		return nil
	}
	return strings.Split(f.String(), "|")
}

// SaveInterface creates the interface when it does not exist and then
// applies every attribute of ifc to it.
func (m *Manager) SaveInterface(ifc netconf.Interface) error {
	if ifc.Name == "" {
		return errors.New("interface name required")
	}
	l, err := m.linkByName(ifc.Name)
	switch {
	case err == nil:
	case errors.Is(err, netconf.ErrNotFound):
		if l, err = m.createLink(ifc); err != nil {
			return err
		}
	default:
		return err
	}

	if ifc.MTU > 0 && ifc.MTU != l.Attrs().MTU {
		if err := m.nlHandle.LinkSetMTU(l, ifc.MTU); err != nil {
			return fmt.Errorf("set mtu of %s: %w", ifc.Name, err)
		}
	}
	if ifc.Description != l.Attrs().Alias {
		if err := m.nlHandle.LinkSetAlias(l, ifc.Description); err != nil {
			return fmt.Errorf("set description of %s: %w", ifc.Name, err)
		}
	}
	if err := m.setGroup(l, ifc.Groups); err != nil {
		return err
	}
	if err := m.applyMembers(l, ifc.Options); err != nil {
		return err
	}
	if err := m.bindVRF(l, ifc.VRF); err != nil {
		return err
	}
	if err := m.addAddresses(l, ifc.Addresses); err != nil {
		return err
	}

	if ifc.Up {
		err = m.nlHandle.LinkSetUp(l)
	} else {
		err = m.nlHandle.LinkSetDown(l)
	}
	if err != nil {
		return fmt.Errorf("set %s admin state: %w", ifc.Name, err)
	}
	slog.Info("interface saved", "name", ifc.Name, "type", ifc.Type)
	return nil
}

// setGroup applies the last numeric group of groups; the kernel keeps a
// single group per link.
func (m *Manager) setGroup(l netlink.Link, groups []string) error {
	group := 0
	if len(groups) > 0 {
		g := groups[len(groups)-1]
		n, err := strconv.ParseUint(g, 10, 32)
		if err != nil {
			return fmt.Errorf("interface %s: group %q must be numeric", l.Attrs().Name, g)
		}
		group = int(n)
	}
	if uint32(group) == l.Attrs().Group {
		return nil
	}
	if err := m.nlHandle.LinkSetGroup(l, group); err != nil {
		return fmt.Errorf("set group of %s: %w", l.Attrs().Name, err)
	}
	return nil
}

// applyMembers enslaves bridge and lagg members to l.
func (m *Manager) applyMembers(l netlink.Link, opts netconf.InterfaceOptions) error {
	var members []string
	switch o := opts.(type) {
	case *netconf.BridgeOptions:
		members = o.Members
	case *netconf.LaggOptions:
		members = o.Members
	default:
		return nil
	}
	_, lagg := opts.(*netconf.LaggOptions)
	for _, name := range members {
		member, err := m.linkByName(name)
		if err != nil {
			return fmt.Errorf("member of %s: %w", l.Attrs().Name, err)
		}
		if member.Attrs().MasterIndex == l.Attrs().Index {
			continue
		}
		// Bond slaves must be down before enslaving.
		if lagg {
			m.nlHandle.LinkSetDown(member)
		}
		if err := m.nlHandle.LinkSetMaster(member, l); err != nil {
			return fmt.Errorf("add %s to %s: %w", name, l.Attrs().Name, err)
		}
		if lagg {
			m.nlHandle.LinkSetUp(member)
		}
		slog.Info("member added", "master", l.Attrs().Name, "member", name)
	}
	return nil
}

func (m *Manager) addAddresses(l netlink.Link, prefixes []netip.Prefix) error {
	have, err := m.nlHandle.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return fmt.Errorf("list addresses of %s: %w", l.Attrs().Name, err)
	}
	var current []netip.Prefix
	for _, a := range have {
		if p, ok := prefixFromIPNet(a.IPNet); ok {
			current = append(current, p)
		}
	}
	for _, p := range prefixes {
		if slices.Contains(current, p) {
			continue
		}
		if err := m.nlHandle.AddrAdd(l, &netlink.Addr{IPNet: ipNetFromPrefix(p)}); err != nil {
			return fmt.Errorf("add address %s to %s: %w", p, l.Attrs().Name, err)
		}
		slog.Info("address added", "interface", l.Attrs().Name, "address", p)
	}
	return nil
}

func (m *Manager) DestroyInterface(name string) error {
	l, err := m.linkByName(name)
	if err != nil {
		return err
	}
	if err := m.nlHandle.LinkDel(l); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	slog.Info("interface destroyed", "name", name)
	return nil
}

func (m *Manager) RemoveInterfaceAddress(name string, addr netip.Prefix) error {
	l, err := m.linkByName(name)
	if err != nil {
		return err
	}
	if err := m.nlHandle.AddrDel(l, &netlink.Addr{IPNet: ipNetFromPrefix(addr)}); err != nil {
		if errors.Is(err, unix.EADDRNOTAVAIL) {
			return fmt.Errorf("address %s on %s: %w", addr, name, netconf.ErrNotFound)
		}
		return fmt.Errorf("remove address %s from %s: %w", addr, name, err)
	}
	slog.Info("address removed", "interface", name, "address", addr)
	return nil
}
