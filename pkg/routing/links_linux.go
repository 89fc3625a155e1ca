//go:build linux

package routing

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/psaab/netcli/pkg/netconf"
)

// linkType maps a netlink link kind onto the CLI interface types.
func linkType(l netlink.Link) netconf.InterfaceType {
	switch t := l.(type) {
	case *netlink.Bridge:
		return netconf.TypeBridge
	case *netlink.Bond:
		return netconf.TypeLagg
	case *netlink.Vlan:
		return netconf.TypeVLAN
	case *netlink.Gretun, *netlink.Gretap:
		return netconf.TypeGRE
	case *netlink.Iptun, *netlink.Ip6tnl, *netlink.Sittun:
		return netconf.TypeGIF
	case *netlink.Xfrmi, *netlink.Vti:
		return netconf.TypeIPsec
	case *netlink.Vxlan:
		return netconf.TypeVXLAN
	case *netlink.Wireguard:
		return netconf.TypeWireGuard
	case *netlink.Veth:
		return netconf.TypeEpair
	case *netlink.Tuntap:
		if t.Mode == netlink.TUNTAP_MODE_TAP {
			return netconf.TypeTap
		}
		return netconf.TypeTun
	}
	if l.Attrs().Flags&net.FlagLoopback != 0 {
		return netconf.TypeLoopback
	}
	return netconf.TypeEthernet
}

var bondModes = map[string]netlink.BondMode{
	"lacp":        netlink.BOND_MODE_802_3AD,
	"failover":    netlink.BOND_MODE_ACTIVE_BACKUP,
	"loadbalance": netlink.BOND_MODE_BALANCE_XOR,
	"roundrobin":  netlink.BOND_MODE_BALANCE_RR,
	"broadcast":   netlink.BOND_MODE_BROADCAST,
}

func laggProtocol(mode netlink.BondMode) string {
	for name, m := range bondModes {
		if m == mode {
			return name
		}
	}
	return "none"
}

// linkOptions extracts the type-specific settings of l.
func linkOptions(s *snapshot, l netlink.Link) netconf.InterfaceOptions {
	switch t := l.(type) {
	case *netlink.Bridge:
		return &netconf.BridgeOptions{Members: s.members(t.Index)}
	case *netlink.Bond:
		return &netconf.LaggOptions{Members: s.members(t.Index), Protocol: laggProtocol(t.Mode)}
	case *netlink.Vlan:
		return &netconf.VLANOptions{ID: t.VlanId, Parent: s.name(t.ParentIndex)}
	case *netlink.Gretun:
		return tunnelOptions(netconf.TypeGRE, t.Local, t.Remote, t.IKey)
	case *netlink.Gretap:
		return tunnelOptions(netconf.TypeGRE, t.Local, t.Remote, t.IKey)
	case *netlink.Iptun:
		return tunnelOptions(netconf.TypeGIF, t.Local, t.Remote, 0)
	case *netlink.Ip6tnl:
		return tunnelOptions(netconf.TypeGIF, t.Local, t.Remote, 0)
	case *netlink.Xfrmi:
		return &netconf.TunnelOptions{Kind: netconf.TypeIPsec, Key: t.Ifid}
	case *netlink.Vxlan:
		o := &netconf.VXLANOptions{VNI: t.VxlanId, Port: t.Port}
		o.Local, _ = addrFromIP(t.SrcAddr)
		o.Remote, _ = addrFromIP(t.Group)
		return o
	case *netlink.Wireguard:
		return &netconf.WireGuardOptions{}
	}
	return nil
}

func tunnelOptions(kind netconf.InterfaceType, local, remote net.IP, key uint32) *netconf.TunnelOptions {
	o := &netconf.TunnelOptions{Kind: kind, Key: key}
	o.Source, _ = addrFromIP(local)
	o.Destination, _ = addrFromIP(remote)
	return o
}

// newLink builds the netlink object that creates ifc. Parent links are
// resolved through m.
func (m *Manager) newLink(ifc netconf.Interface) (netlink.Link, error) {
	attrs := netlink.LinkAttrs{Name: ifc.Name, MTU: ifc.MTU}
	switch ifc.Type {
	case netconf.TypeBridge:
		return &netlink.Bridge{LinkAttrs: attrs}, nil
	case netconf.TypeLagg:
		bond := netlink.NewLinkBond(attrs)
		bond.Mode = netlink.BOND_MODE_802_3AD
		if o, ok := ifc.Options.(*netconf.LaggOptions); ok {
			if mode, ok := bondModes[o.Protocol]; ok {
				bond.Mode = mode
			}
		}
		return bond, nil
	case netconf.TypeVLAN:
		o, ok := ifc.Options.(*netconf.VLANOptions)
		if !ok || o.ID == 0 || o.Parent == "" {
			return nil, fmt.Errorf("vlan %s: vlan id and parent required", ifc.Name)
		}
		parent, err := m.linkByName(o.Parent)
		if err != nil {
			return nil, fmt.Errorf("vlan %s parent: %w", ifc.Name, err)
		}
		attrs.ParentIndex = parent.Attrs().Index
		return &netlink.Vlan{LinkAttrs: attrs, VlanId: o.ID}, nil
	case netconf.TypeGRE, netconf.TypeGIF, netconf.TypeIPsec:
		return newTunnel(attrs, ifc)
	case netconf.TypeVXLAN:
		o, ok := ifc.Options.(*netconf.VXLANOptions)
		if !ok || o.VNI == 0 {
			return nil, fmt.Errorf("vxlan %s: vni required", ifc.Name)
		}
		v := &netlink.Vxlan{LinkAttrs: attrs, VxlanId: o.VNI, Port: o.Port}
		if o.Local.IsValid() {
			v.SrcAddr = net.IP(o.Local.AsSlice())
		}
		if o.Remote.IsValid() {
			v.Group = net.IP(o.Remote.AsSlice())
		}
		return v, nil
	case netconf.TypeWireGuard:
		return &netlink.Wireguard{LinkAttrs: attrs}, nil
	case netconf.TypeTun:
		return &netlink.Tuntap{LinkAttrs: attrs, Mode: netlink.TUNTAP_MODE_TUN}, nil
	case netconf.TypeTap:
		return &netlink.Tuntap{LinkAttrs: attrs, Mode: netlink.TUNTAP_MODE_TAP}, nil
	case netconf.TypeEpair:
		return &netlink.Veth{LinkAttrs: attrs, PeerName: ifc.Name + "b"}, nil
	}
	return nil, fmt.Errorf("interface %s: cannot create %q interfaces", ifc.Name, ifc.Type)
}

func newTunnel(attrs netlink.LinkAttrs, ifc netconf.Interface) (netlink.Link, error) {
	o, _ := ifc.Options.(*netconf.TunnelOptions)
	if ifc.Type == netconf.TypeIPsec {
		if o == nil || o.Key == 0 {
			return nil, fmt.Errorf("ipsec %s: key (if_id) required", ifc.Name)
		}
		return &netlink.Xfrmi{LinkAttrs: attrs, Ifid: o.Key}, nil
	}
	if o == nil || !o.Source.IsValid() || !o.Destination.IsValid() {
		return nil, fmt.Errorf("%s %s: source and destination required", ifc.Type, ifc.Name)
	}
	local, remote := net.IP(o.Source.AsSlice()), net.IP(o.Destination.AsSlice())
	if ifc.Type == netconf.TypeGIF {
		if o.Source.Is6() {
			return &netlink.Ip6tnl{LinkAttrs: attrs, Local: local, Remote: remote, Ttl: 64}, nil
		}
		return &netlink.Iptun{LinkAttrs: attrs, Local: local, Remote: remote, Ttl: 64}, nil
	}
	gre := &netlink.Gretun{LinkAttrs: attrs, Local: local, Remote: remote, Ttl: 64}
	if o.Key > 0 {
		gre.IKey = o.Key
		gre.OKey = o.Key
	}
	return gre, nil
}

// createLink adds the link for ifc and returns it as the kernel reports it.
func (m *Manager) createLink(ifc netconf.Interface) (netlink.Link, error) {
	link, err := m.newLink(ifc)
	if err != nil {
		return nil, err
	}
	if err := m.nlHandle.LinkAdd(link); err != nil {
		return nil, fmt.Errorf("create %s %s: %w", ifc.Type, ifc.Name, err)
	}
	created, err := m.nlHandle.LinkByName(ifc.Name)
	if err != nil {
		return nil, fmt.Errorf("find created %s: %w", ifc.Name, err)
	}
	slog.Info("interface created", "name", ifc.Name, "type", ifc.Type)
	return created, nil
}
