//go:build linux

package routing

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/psaab/netcli/pkg/netconf"
)

// GetRoutes reads the routes of one FIB from the kernel, IPv4 then IPv6.
func (m *Manager) GetRoutes(table int) ([]netconf.Route, error) {
	s, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	var out []netconf.Route
	for _, family := range []int{netlink.FAMILY_V4, netlink.FAMILY_V6} {
		filter := &netlink.Route{Table: kernelTable(table)}
		routes, err := m.nlHandle.RouteListFiltered(family, filter, netlink.RT_FILTER_TABLE)
		if err != nil {
			return nil, fmt.Errorf("list routes of table %d: %w", table, err)
		}
		for _, r := range routes {
			out = append(out, toRoute(s, r, family))
		}
	}
	return out, nil
}

// toRoute converts a netlink route to the CLI representation.
func toRoute(s *snapshot, r netlink.Route, family int) netconf.Route {
	out := netconf.Route{
		Table:    cliTable(r.Table),
		Protocol: rtProtoName(r.Protocol),
	}
	if p, ok := prefixFromIPNet(r.Dst); ok {
		out.Destination = p
	} else {
		out.Destination = defaultRoute(family == netlink.FAMILY_V6)
	}
	if gw, ok := addrFromIP(r.Gw); ok {
		out.Gateway = gw
	}
	if r.LinkIndex > 0 {
		out.Interface = s.name(r.LinkIndex)
	}
	switch r.Type {
	case unix.RTN_BLACKHOLE:
		out.Flags |= netconf.RouteBlackhole
	case unix.RTN_UNREACHABLE, unix.RTN_PROHIBIT:
		out.Flags |= netconf.RouteReject
	}
	if r.Protocol == unix.RTPROT_STATIC {
		out.Flags |= netconf.RouteStatic
	}
	if out.Destination.Bits() == out.Destination.Addr().BitLen() {
		out.Flags |= netconf.RouteHost
	}
	return out
}

// kernelRoute builds the netlink request for r.
func (m *Manager) kernelRoute(r netconf.Route) (*netlink.Route, error) {
	nr := &netlink.Route{
		Dst:      ipNetFromPrefix(r.Destination.Masked()),
		Table:    kernelTable(r.Table),
		Protocol: unix.RTPROT_STATIC,
	}
	switch {
	case r.Has(netconf.RouteBlackhole):
		nr.Type = unix.RTN_BLACKHOLE
		return nr, nil
	case r.Has(netconf.RouteReject):
		nr.Type = unix.RTN_UNREACHABLE
		return nr, nil
	}
	if r.Gateway.IsValid() {
		nr.Gw = net.IP(r.Gateway.AsSlice())
	}
	if r.Interface != "" {
		l, err := m.linkByName(r.Interface)
		if err != nil {
			return nil, err
		}
		nr.LinkIndex = l.Attrs().Index
		if !r.Gateway.IsValid() {
			nr.Scope = netlink.SCOPE_LINK
		}
	}
	return nr, nil
}

func (m *Manager) AddRoute(r netconf.Route) error {
	nr, err := m.kernelRoute(r)
	if err != nil {
		return fmt.Errorf("route %s: %w", r.Destination, err)
	}
	if err := m.nlHandle.RouteAdd(nr); err != nil {
		return fmt.Errorf("add route %s table %d: %w", r.Destination, r.Table, err)
	}
	slog.Info("route added", "dst", r.Destination, "gw", r.Gateway, "table", r.Table)
	return nil
}

func (m *Manager) DeleteRoute(r netconf.Route) error {
	nr := &netlink.Route{
		Dst:   ipNetFromPrefix(r.Destination.Masked()),
		Table: kernelTable(r.Table),
	}
	if err := m.nlHandle.RouteDel(nr); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("route %s table %d: %w", r.Destination, r.Table, netconf.ErrNotFound)
		}
		return fmt.Errorf("delete route %s table %d: %w", r.Destination, r.Table, err)
	}
	slog.Info("route deleted", "dst", r.Destination, "table", r.Table)
	return nil
}

func rtProtoName(p netlink.RouteProtocol) string {
	pi := int(p)
	switch pi {
	case unix.RTPROT_REDIRECT:
		return "redirect"
	case unix.RTPROT_KERNEL:
		return "kernel"
	case unix.RTPROT_BOOT:
		return "boot"
	case unix.RTPROT_STATIC:
		return "static"
	case 16: // RTPROT_DHCP
		return "dhcp"
	case 186:
		return "bgp"
	case 188:
		return "ospf"
	case 189:
		return "rip"
	case 196:
		return "zebra"
	default:
		return strconv.Itoa(pi)
	}
}

// vrfDevice names the VRF device created for v.
func vrfDevice(v netconf.VRF) string {
	if v.Name != "" {
		return "vrf-" + v.Name
	}
	return "vrf" + strconv.Itoa(v.Table)
}

// vrfByTable finds the VRF device bound to FIB table.
func (s *snapshot) vrfByTable(table int) (*netlink.Vrf, bool) {
	for _, l := range s.links {
		if v, ok := l.(*netlink.Vrf); ok && int(v.Table) == kernelTable(table) {
			return v, true
		}
	}
	return nil, false
}

// GetVRFs lists the main table and every VRF device, with their members.
func (m *Manager) GetVRFs() ([]netconf.VRF, error) {
	s, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	main := netconf.VRF{Table: 0, Name: "default"}
	var out []netconf.VRF
	for _, l := range s.links {
		switch v := l.(type) {
		case *netlink.Vrf:
			out = append(out, netconf.VRF{
				Table:      cliTable(int(v.Table)),
				Name:       v.Name,
				Interfaces: s.members(v.Index),
			})
		default:
			if s.vrfOf(l) == 0 {
				main.Interfaces = append(main.Interfaces, l.Attrs().Name)
			}
		}
	}
	sort.Strings(main.Interfaces)
	out = append(out, main)
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out, nil
}

// SaveVRF creates the VRF device for v.Table if needed and binds
// v.Interfaces to it. Table 0 unbinds them instead.
func (m *Manager) SaveVRF(v netconf.VRF) error {
	if v.Table != 0 {
		if err := m.ensureVRF(v); err != nil {
			return err
		}
	}
	for _, name := range v.Interfaces {
		l, err := m.linkByName(name)
		if err != nil {
			return err
		}
		if err := m.bindVRF(l, v.Table); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) ensureVRF(v netconf.VRF) error {
	s, err := m.snapshot()
	if err != nil {
		return err
	}
	if existing, ok := s.vrfByTable(v.Table); ok {
		slog.Debug("VRF already exists", "name", existing.Name, "table", v.Table)
		return nil
	}
	name := vrfDevice(v)
	vrf := &netlink.Vrf{
		LinkAttrs: netlink.LinkAttrs{Name: name},
		Table:     uint32(kernelTable(v.Table)),
	}
	if err := m.nlHandle.LinkAdd(vrf); err != nil {
		return fmt.Errorf("create VRF %s: %w", name, err)
	}
	link, err := m.nlHandle.LinkByName(name)
	if err != nil {
		return fmt.Errorf("find VRF %s: %w", name, err)
	}
	if err := m.nlHandle.LinkSetUp(link); err != nil {
		return fmt.Errorf("set VRF %s up: %w", name, err)
	}
	slog.Info("VRF created", "name", name, "table", v.Table)
	return nil
}

// bindVRF enslaves l to the VRF device of table, or releases it from its
// VRF when table is 0.
func (m *Manager) bindVRF(l netlink.Link, table int) error {
	s, err := m.snapshot()
	if err != nil {
		return err
	}
	current := s.vrfOf(l)
	if current == table {
		return nil
	}
	name := l.Attrs().Name
	if table == 0 {
		if err := m.nlHandle.LinkSetNoMaster(l); err != nil {
			return fmt.Errorf("unbind %s from VRF %d: %w", name, current, err)
		}
		slog.Info("interface unbound from VRF", "interface", name, "table", current)
		return nil
	}
	vrf, ok := s.vrfByTable(table)
	if !ok {
		return fmt.Errorf("vrf %d: %w", table, netconf.ErrNotFound)
	}
	if err := m.nlHandle.LinkSetMaster(l, vrf); err != nil {
		return fmt.Errorf("bind %s to VRF %s: %w", name, vrf.Name, err)
	}
	slog.Info("interface bound to VRF", "interface", name, "vrf", vrf.Name)
	return nil
}

func (m *Manager) DeleteVRF(table int) error {
	if table == 0 {
		return errors.New("the main table cannot be deleted")
	}
	s, err := m.snapshot()
	if err != nil {
		return err
	}
	vrf, ok := s.vrfByTable(table)
	if !ok {
		return fmt.Errorf("vrf %d: %w", table, netconf.ErrNotFound)
	}
	if err := m.nlHandle.LinkDel(vrf); err != nil {
		return fmt.Errorf("delete VRF %s: %w", vrf.Name, err)
	}
	slog.Info("VRF removed", "name", vrf.Name, "table", table)
	return nil
}
