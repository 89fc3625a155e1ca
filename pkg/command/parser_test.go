package command

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/psaab/netcli/pkg/netconf"
)

var netipComparers = cmp.Options{
	cmp.Comparer(func(a, b netip.Addr) bool { return a == b }),
	cmp.Comparer(func(a, b netip.Prefix) bool { return a == b }),
}

func boolPtr(b bool) *bool { return &b }

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatal(err)
	}
	return mac
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   \t ", nil},
		{"show interfaces", []string{"show", "interfaces"}},
		{"  set\tinterface \n name  em0 ", []string{"set", "interface", "name", "em0"}},
		{`set interface description "two words"`, []string{"set", "interface", "description", `"two`, `words"`}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Parse(nil) = %v, want ErrEmpty", err)
	}

	_, err := ParseLine("frobnicate interfaces")
	var uv *UnknownVerbError
	if !errors.As(err, &uv) || uv.Word != "frobnicate" {
		t.Errorf("ParseLine(frobnicate) = %v, want UnknownVerbError", err)
	}

	// Verbs are case sensitive.
	if _, err := ParseLine("SHOW interfaces"); !errors.As(err, &uv) {
		t.Errorf("ParseLine(SHOW) = %v, want UnknownVerbError", err)
	}
}

func TestParseFieldErrors(t *testing.T) {
	tests := []struct {
		line    string
		keyword string
		missing bool
	}{
		{"set interface name", "name", true},
		{"set interface name em0 mtu", "mtu", true},
		{"set interface name em0 mtu 10", "mtu", false},
		{"set interface name em0 mtu big", "mtu", false},
		{"set interface name em0 type frobber", "type", false},
		{"set interface name em0 inet address 2001:db8::1/64", "address", false},
		{"set interface name em0 inet6 address 192.0.2.1/24", "address", false},
		{"set interface name lagg0 lagg protocol magic", "protocol", false},
		{"set interface name vlan5 vid 5000", "vid", false},
		{"set route bogus", "route", false},
		{"set route 10.0.0.0/8 next-hop", "next-hop", true},
		{"set route 10.0.0.0/8 gw nowhere", "gw", false},
		{"set vrf -1", "vrf", false},
		{"set vrf 70000", "vrf", false},
		{"set arp 2001:db8::1", "arp", false},
		{"set ndp 192.0.2.1", "ndp", false},
		{"set arp 192.0.2.1 mac zz", "mac", false},
		{"set policy p1 action maybe", "action", false},
	}
	for _, tt := range tests {
		_, err := ParseLine(tt.line)
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Errorf("ParseLine(%q) = %v, want FieldError", tt.line, err)
			continue
		}
		if fe.Keyword != tt.keyword {
			t.Errorf("ParseLine(%q) keyword = %q, want %q", tt.line, fe.Keyword, tt.keyword)
		}
		if got := errors.Is(err, ErrMissingValue); got != tt.missing {
			t.Errorf("ParseLine(%q) missing value = %v, want %v", tt.line, got, tt.missing)
		}
	}
}

func TestParseVerbOnly(t *testing.T) {
	for _, line := range []string{"show", "delete", "show bogus", "set firewall rule 1"} {
		cmd, err := ParseLine(line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", line, err)
			continue
		}
		if cmd.Object != nil {
			t.Errorf("ParseLine(%q).Object = %v, want nil", line, cmd.Object)
		}
		if !cmd.Validate() {
			t.Errorf("ParseLine(%q) does not validate", line)
		}
	}
	if (&Command{}).Validate() {
		t.Error("Command without verb validates")
	}
}

func TestParseInterface(t *testing.T) {
	tests := []struct {
		line string
		want *InterfaceToken
	}{
		{"show interfaces", &InterfaceToken{}},
		{"show interfaces ethernet", &InterfaceToken{Type: netconf.TypeEthernet}},
		{
			"set interface name em0 mtu 1500",
			&InterfaceToken{Name: "em0", MTU: 1500},
		},
		{
			"set interfaces ethernet em0 mtu 9000 up",
			&InterfaceToken{Name: "em0", Type: netconf.TypeEthernet, MTU: 9000, Up: boolPtr(true)},
		},
		{
			"set interfaces vlan vlan100 vid 100 parent em0",
			&InterfaceToken{
				Name:    "vlan100",
				Type:    netconf.TypeVLAN,
				Options: &netconf.VLANOptions{ID: 100, Parent: "em0"},
			},
		},
		{
			"set interfaces vlan mtu 1500",
			&InterfaceToken{Type: netconf.TypeVLAN, MTU: 1500},
		},
		{
			"show interfaces bridge group lan",
			&InterfaceToken{Type: netconf.TypeBridge, Group: "lan"},
		},
		{
			"show interfaces bridge up",
			&InterfaceToken{Type: netconf.TypeBridge, Up: boolPtr(true)},
		},
		{
			"set interfaces bridge stp priority 8192",
			&InterfaceToken{
				Type:    netconf.TypeBridge,
				Options: &netconf.BridgeOptions{STP: true, Priority: 8192},
			},
		},
		{
			"set interface name vlan7 vlan id 7 parent em1",
			&InterfaceToken{
				Name:    "vlan7",
				Type:    netconf.TypeVLAN,
				Options: &netconf.VLANOptions{ID: 7, Parent: "em1"},
			},
		},
		{
			"set interface type bridge br0 member em0,em1 stp priority 4096",
			&InterfaceToken{
				Name:    "br0",
				Type:    netconf.TypeBridge,
				Options: &netconf.BridgeOptions{Members: []string{"em0", "em1"}, STP: true, Priority: 4096},
			},
		},
		{
			"set interface name lagg0 lagg members em2,em3 protocol lacp",
			&InterfaceToken{
				Name:    "lagg0",
				Type:    netconf.TypeLagg,
				Options: &netconf.LaggOptions{Members: []string{"em2", "em3"}, Protocol: "lacp"},
			},
		},
		{
			"set interface name vx0 vni 42 remote 198.51.100.1",
			&InterfaceToken{
				Name:    "vx0",
				Type:    netconf.TypeVXLAN,
				Options: &netconf.VXLANOptions{VNI: 42, Remote: netip.MustParseAddr("198.51.100.1")},
			},
		},
		{
			"set interface name gre0 type gre source 192.0.2.1 destination 192.0.2.2 key 7",
			&InterfaceToken{
				Name: "gre0",
				Type: netconf.TypeGRE,
				Options: &netconf.TunnelOptions{
					Kind:        netconf.TypeGRE,
					Source:      netip.MustParseAddr("192.0.2.1"),
					Destination: netip.MustParseAddr("192.0.2.2"),
					Key:         7,
				},
			},
		},
		{
			"set interface name em0 inet address 192.0.2.1/24",
			&InterfaceToken{Name: "em0", Family: "inet", Address: netip.MustParsePrefix("192.0.2.1/24")},
		},
		{
			"set interface name em0 inet6 address 2001:db8::1",
			&InterfaceToken{Name: "em0", Family: "inet6", Address: netip.MustParsePrefix("2001:db8::1/128")},
		},
		{
			"delete interface name em0 inet",
			&InterfaceToken{Name: "em0", Family: "inet"},
		},
		{
			"set interface name em1 fib 3 group uplink description wan down",
			&InterfaceToken{Name: "em1", VRF: intPtr(3), Group: "uplink", Description: "wan", Up: boolPtr(false)},
		},
		{
			// parent belongs to both vlan and wlan, so it cannot pick a type.
			"set interface parent em0",
			&InterfaceToken{},
		},
		{
			"set interface name em0 mtu 1500 bogus mtu 9000",
			&InterfaceToken{Name: "em0", MTU: 1500},
		},
	}
	for _, tt := range tests {
		cmd, err := ParseLine(tt.line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tt.line, err)
			continue
		}
		if diff := cmp.Diff(Token(tt.want), cmd.Object, netipComparers); diff != "" {
			t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		line string
		want *RouteToken
	}{
		{"show route", &RouteToken{}},
		{"show routes vrf 2", &RouteToken{VRF: intPtr(2)}},
		{"show route 10.0.0.0/24", &RouteToken{Prefix: netip.MustParsePrefix("10.0.0.0/24")}},
		{
			"set route 10.0.0.0/24 next-hop 192.0.2.1 vrf 2",
			&RouteToken{
				Prefix:  netip.MustParsePrefix("10.0.0.0/24"),
				NextHop: netip.MustParseAddr("192.0.2.1"),
				VRF:     intPtr(2),
			},
		},
		{
			"set route 10.1.2.3/16 next-hop blackhole",
			&RouteToken{Prefix: netip.MustParsePrefix("10.1.0.0/16"), Blackhole: true},
		},
		{
			"set route 2001:db8::/32 nexthop reject",
			&RouteToken{Prefix: netip.MustParsePrefix("2001:db8::/32"), Reject: true},
		},
		{
			"set route dest 0.0.0.0/0 gw 192.0.2.254 interface em0",
			&RouteToken{
				Prefix:    netip.MustParsePrefix("0.0.0.0/0"),
				Gateway:   netip.MustParseAddr("192.0.2.254"),
				Interface: "em0",
			},
		},
		{
			"set route 192.0.2.7 blackhole",
			&RouteToken{Prefix: netip.MustParsePrefix("192.0.2.7/32"), Blackhole: true},
		},
	}
	for _, tt := range tests {
		cmd, err := ParseLine(tt.line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tt.line, err)
			continue
		}
		if diff := cmp.Diff(Token(tt.want), cmd.Object, netipComparers); diff != "" {
			t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestRouteVia(t *testing.T) {
	gw := netip.MustParseAddr("192.0.2.1")
	nh := netip.MustParseAddr("192.0.2.2")
	if got := (&RouteToken{Gateway: gw}).Via(); got != gw {
		t.Errorf("Via() = %v, want gateway %v", got, gw)
	}
	if got := (&RouteToken{Gateway: gw, NextHop: nh}).Via(); got != nh {
		t.Errorf("Via() = %v, want next-hop %v", got, nh)
	}
	if got := (&RouteToken{}).Table(); got != 0 {
		t.Errorf("Table() = %d, want 0", got)
	}
}

func TestParseOtherNouns(t *testing.T) {
	tests := []struct {
		line string
		want Token
	}{
		{"set vrf 2 name blue interface em1", &VRFToken{Table: intPtr(2), Name: "blue", Interface: "em1"}},
		{"delete vrf table 3", &VRFToken{Table: intPtr(3)}},
		{"show vrf", &VRFToken{}},
		{
			"set arp 192.0.2.5 mac 00:11:22:33:44:55 interface em0",
			&ArpToken{NeighborFields{
				IP:        netip.MustParseAddr("192.0.2.5"),
				MAC:       mustMAC(t, "00:11:22:33:44:55"),
				Interface: "em0",
			}},
		},
		{
			"set ndp fe80::1 mac 00:11:22:33:44:66 temp",
			&NdpToken{NeighborFields{
				IP:        netip.MustParseAddr("fe80::1"),
				MAC:       mustMAC(t, "00:11:22:33:44:66"),
				Temporary: true,
			}},
		},
		{"show arp", &ArpToken{}},
		{
			"set policy p1 from 10.0.0.0/8 action permit vrf 1",
			&PolicyToken{Name: "p1", From: netip.MustParsePrefix("10.0.0.0/8"), Action: "permit", VRF: intPtr(1)},
		},
	}
	for _, tt := range tests {
		cmd, err := ParseLine(tt.line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tt.line, err)
			continue
		}
		if cmd.Object.Kind() != tt.want.Kind() {
			t.Errorf("ParseLine(%q) kind = %v, want %v", tt.line, cmd.Object.Kind(), tt.want.Kind())
		}
		if diff := cmp.Diff(tt.want, cmd.Object, netipComparers); diff != "" {
			t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestStringParsesBack(t *testing.T) {
	lines := []string{
		"set interface name em0 mtu 1500",
		"set interface type vlan name vlan100 vid 100 parent em0",
		"set interface type vxlan name vx0 vni 42",
		"set interface type bridge name br0 member em0 member em1 stp",
		"set interface type gif name gif0 source 192.0.2.1 destination 192.0.2.2 tunnel-vrf 4",
		"set interface type carp name carp0 vhid 3 advskew 100",
		"set interface name em0 description uplink vrf 2 inet address 192.0.2.1/24 down",
		"set route 10.0.0.0/24 next-hop 192.0.2.1 vrf 2",
		"set route 10.1.0.0/16 blackhole",
		"delete route 0.0.0.0/0 gw 192.0.2.254 interface em0",
		"set vrf 2 name blue interface em1",
		"set arp 192.0.2.5 mac 00:11:22:33:44:55 interface em0",
		"set ndp fe80::1 mac 00:11:22:33:44:66 temp",
		"set policy p1 from 10.0.0.0/8 action permit",
		"show",
	}
	for _, line := range lines {
		cmd, err := ParseLine(line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", line, err)
			continue
		}
		if got := cmd.String(); got != line {
			t.Errorf("String() = %q, want %q", got, line)
		}
		again, err := ParseLine(cmd.String())
		if err != nil {
			t.Errorf("reparse %q: %v", cmd.String(), err)
			continue
		}
		if diff := cmp.Diff(cmd, again, netipComparers); diff != "" {
			t.Errorf("reparse %q mismatch (-first +second):\n%s", line, diff)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &InterfaceToken{
		Name:    "br0",
		VRF:     intPtr(1),
		Up:      boolPtr(true),
		Type:    netconf.TypeBridge,
		Options: &netconf.BridgeOptions{Members: []string{"em0"}},
	}
	c := orig.Clone().(*InterfaceToken)
	*c.VRF = 9
	*c.Up = false
	c.Options.(*netconf.BridgeOptions).Members[0] = "em9"
	c.Name = "br9"

	want := &InterfaceToken{
		Name:    "br0",
		VRF:     intPtr(1),
		Up:      boolPtr(true),
		Type:    netconf.TypeBridge,
		Options: &netconf.BridgeOptions{Members: []string{"em0"}},
	}
	if diff := cmp.Diff(want, orig, netipComparers); diff != "" {
		t.Errorf("original changed by clone mutation (-want +got):\n%s", diff)
	}

	arp := &ArpToken{NeighborFields{MAC: mustMAC(t, "00:11:22:33:44:55")}}
	ac := arp.Clone().(*ArpToken)
	ac.MAC[0] = 0xff
	if arp.MAC[0] != 0 {
		t.Error("arp clone shares MAC storage")
	}

	vrf := &VRFToken{Table: intPtr(2)}
	vc := vrf.Clone().(*VRFToken)
	*vc.Table = 5
	if *vrf.Table != 2 {
		t.Error("vrf clone shares table pointer")
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name    string
		tok     Token
		partial string
		want    []string
	}{
		{"route", &RouteToken{}, "n", []string{"next-hop", "nexthop"}},
		{"vrf", &VRFToken{}, "", []string{"interface", "name", "table"}},
		{"arp", &ArpToken{}, "", []string{"interface", "mac", "permanent", "temp"}},
		{"policy", &PolicyToken{}, "a", []string{"action"}},
		{"vlan", &InterfaceToken{Type: netconf.TypeVLAN}, "p", []string{"parent", "pcp"}},
		{"any interface", &InterfaceToken{}, "p", []string{"parent", "pcp", "port", "priority", "protocol"}},
		{"no match", &RouteToken{}, "zz", nil},
	}
	for _, tt := range tests {
		got := tt.tok.Complete(tt.partial)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: Complete(%q) mismatch (-want +got):\n%s", tt.name, tt.partial, diff)
		}
	}
}

func TestInterfaceKeywordsByType(t *testing.T) {
	kws := InterfaceKeywords(netconf.TypeCARP)
	for _, want := range []string{"vhid", "advskew", "name", "mtu"} {
		found := false
		for _, kw := range kws {
			if kw == want {
				found = true
			}
		}
		if !found {
			t.Errorf("InterfaceKeywords(carp) lacks %q", want)
		}
	}
	for _, kw := range kws {
		if kw == "vni" {
			t.Error("InterfaceKeywords(carp) offers vxlan keyword vni")
		}
	}
}

func TestSortedNameLists(t *testing.T) {
	if diff := cmp.Diff([]string{"broadcast", "failover", "lacp", "loadbalance", "none", "roundrobin"}, LaggProtocols()); diff != "" {
		t.Errorf("LaggProtocols() mismatch (-want +got):\n%s", diff)
	}
	names := InterfaceTypeNames()
	if len(names) != len(netconf.InterfaceTypes) {
		t.Fatalf("InterfaceTypeNames() has %d names, want %d", len(names), len(netconf.InterfaceTypes))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("InterfaceTypeNames() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}
