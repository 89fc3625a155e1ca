// Package netconf defines the system configuration surface that netcli
// handlers query and mutate, plus the value types exchanged with it.
package netconf

import (
	"errors"
	"net"
	"net/netip"
)

// ErrNotFound is returned when the requested interface, route, VRF or
// neighbor entry does not exist.
var ErrNotFound = errors.New("not found")

// Manager is the query/mutation surface over kernel network state.
// Implementations own their sockets and release them in Close.
type Manager interface {
	GetInterfaces() ([]Interface, error)
	GetInterface(name string) (*Interface, error)
	SaveInterface(ifc Interface) error
	DestroyInterface(name string) error
	RemoveInterfaceAddress(name string, addr netip.Prefix) error

	// GetRoutes returns the routes of one FIB/VRF table. Table 0 is the
	// main table.
	GetRoutes(table int) ([]Route, error)
	AddRoute(r Route) error
	DeleteRoute(r Route) error

	GetVRFs() ([]VRF, error)
	SaveVRF(v VRF) error
	DeleteVRF(table int) error

	GetArpEntries() ([]Neighbor, error)
	SetArpEntry(n Neighbor) error
	DeleteArpEntry(n Neighbor) error
	GetNdpEntries() ([]Neighbor, error)
	SetNdpEntry(n Neighbor) error
	DeleteNdpEntry(n Neighbor) error

	Close() error
}

// InterfaceType names the kind of a network interface.
type InterfaceType string

const (
	TypeEthernet  InterfaceType = "ethernet"
	TypeLoopback  InterfaceType = "loopback"
	TypeBridge    InterfaceType = "bridge"
	TypeLagg      InterfaceType = "lagg"
	TypeVLAN      InterfaceType = "vlan"
	TypeGRE       InterfaceType = "gre"
	TypeGIF       InterfaceType = "gif"
	TypeIPsec     InterfaceType = "ipsec"
	TypeVXLAN     InterfaceType = "vxlan"
	TypeWLAN      InterfaceType = "wlan"
	TypeWireGuard InterfaceType = "wireguard"
	TypeCARP      InterfaceType = "carp"
	TypeTun       InterfaceType = "tun"
	TypeTap       InterfaceType = "tap"
	TypeEpair     InterfaceType = "epair"
	TypeOpenVPN   InterfaceType = "ovpn"
)

// InterfaceTypes lists every interface type the CLI understands.
var InterfaceTypes = []InterfaceType{
	TypeEthernet, TypeLoopback, TypeBridge, TypeLagg, TypeVLAN, TypeGRE,
	TypeGIF, TypeIPsec, TypeVXLAN, TypeWLAN, TypeWireGuard, TypeCARP,
	TypeTun, TypeTap, TypeEpair, TypeOpenVPN,
}

// ParseInterfaceType returns the InterfaceType named s.
func ParseInterfaceType(s string) (InterfaceType, bool) {
	for _, t := range InterfaceTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Interface is the configuration and state of one network interface.
type Interface struct {
	Name         string
	Index        int // 0 when the interface does not exist yet
	Type         InterfaceType
	Description  string
	Up           bool
	MTU          int
	VRF          int
	Groups       []string
	Flags        []string
	HardwareAddr string
	Addresses    []netip.Prefix

	// Options holds the type-specific settings, nil for plain interfaces.
	Options InterfaceOptions
}

// Clone returns a deep copy of ifc.
func (ifc Interface) Clone() Interface {
	out := ifc
	out.Groups = append([]string(nil), ifc.Groups...)
	out.Flags = append([]string(nil), ifc.Flags...)
	out.Addresses = append([]netip.Prefix(nil), ifc.Addresses...)
	if ifc.Options != nil {
		out.Options = ifc.Options.CloneOptions()
	}
	return out
}

// HasAddress reports whether addr is assigned to the interface.
func (ifc *Interface) HasAddress(addr netip.Prefix) bool {
	for _, a := range ifc.Addresses {
		if a == addr {
			return true
		}
	}
	return false
}

// RouteFlag is a property of a routing table entry.
type RouteFlag uint8

const (
	RouteBlackhole RouteFlag = 1 << iota
	RouteReject
	RouteStatic
	RouteHost
)

// Route is one entry of a FIB table.
type Route struct {
	Destination netip.Prefix
	Gateway     netip.Addr // invalid when the route is directly connected
	Interface   string
	Table       int
	Flags       RouteFlag
	Protocol    string
}

// Has reports whether all bits of f are set on the route.
func (r *Route) Has(f RouteFlag) bool {
	return r.Flags&f == f
}

// VRF is a FIB table, optionally named, with its member interfaces.
type VRF struct {
	Table      int
	Name       string
	Interfaces []string
}

// Neighbor is an ARP (IPv4) or NDP (IPv6) table entry.
type Neighbor struct {
	IP        netip.Addr
	MAC       net.HardwareAddr
	Interface string
	Permanent bool
	State     string
}
