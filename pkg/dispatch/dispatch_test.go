package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/table"
)

var netipComparers = cmp.Options{
	cmp.Comparer(func(a, b netip.Addr) bool { return a == b }),
	cmp.Comparer(func(a, b netip.Prefix) bool { return a == b }),
}

// recordingManager records saved interfaces. Methods it does not
// override panic through the nil embedded Manager.
type recordingManager struct {
	netconf.Manager
	saved []netconf.Interface
}

func (r *recordingManager) GetInterface(name string) (*netconf.Interface, error) {
	return nil, fmt.Errorf("interface %s: %w", name, netconf.ErrNotFound)
}

func (r *recordingManager) SaveInterface(ifc netconf.Interface) error {
	r.saved = append(r.saved, ifc)
	return nil
}

func newTestDispatcher() (*Dispatcher, *bytes.Buffer) {
	var out bytes.Buffer
	return New(Options{Out: &out}), &out
}

func run(t *testing.T, d *Dispatcher, mgr netconf.Manager, line string) error {
	t.Helper()
	cmd, err := command.ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	return d.Dispatch(cmd, mgr)
}

func mustRun(t *testing.T, d *Dispatcher, mgr netconf.Manager, line string) {
	t.Helper()
	if err := run(t, d, mgr, line); err != nil {
		t.Fatalf("%s: %v", line, err)
	}
}

func TestKeysComplete(t *testing.T) {
	d, _ := newTestDispatcher()
	var want []Key
	for _, kind := range []command.Kind{
		command.KindInterface, command.KindRoute, command.KindVRF, command.KindArp, command.KindNdp,
	} {
		for _, verb := range []command.Verb{command.VerbShow, command.VerbSet, command.VerbDelete} {
			want = append(want, Key{Verb: verb, Kind: kind})
		}
	}
	if diff := cmp.Diff(want, d.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchErrors(t *testing.T) {
	d, _ := newTestDispatcher()
	mgr := netconf.NewMemory()

	if err := d.Dispatch(nil, mgr); err != nil {
		t.Errorf("Dispatch(nil) = %v", err)
	}

	tests := []struct {
		name string
		cmd  *command.Command
		want error
		msg  string
	}{
		{"no verb", &command.Command{Object: &command.RouteToken{}}, ErrUnsupported, "unknown or unsupported command"},
		{"no object", &command.Command{Verb: command.VerbShow}, ErrMissingObject, "show: missing object"},
		{"no handler", &command.Command{Verb: command.VerbSet, Object: &command.PolicyToken{Name: "p"}}, ErrUnknownObject, "set: unknown object type"},
	}
	for _, tt := range tests {
		err := d.Dispatch(tt.cmd, mgr)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: Dispatch() = %v, want %v", tt.name, err, tt.want)
			continue
		}
		if err.Error() != tt.msg {
			t.Errorf("%s: message = %q, want %q", tt.name, err.Error(), tt.msg)
		}
	}
}

func TestHandlerPanicBecomesError(t *testing.T) {
	d, _ := newTestDispatcher()
	Register(d, command.VerbShow, func(*command.RouteToken, netconf.Manager) error {
		panic("boom")
	})
	err := run(t, d, netconf.NewMemory(), "show route")
	if err == nil || !strings.Contains(err.Error(), "internal error: boom") {
		t.Errorf("Dispatch() = %v, want internal error", err)
	}

	// A manager that panics is contained the same way.
	d, _ = newTestDispatcher()
	err = run(t, d, &recordingManager{}, "show vrf")
	if err == nil || !strings.Contains(err.Error(), "show vrf: internal error") {
		t.Errorf("Dispatch() = %v, want internal error", err)
	}
}

func TestRegisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher()
	called := false
	Register(d, command.VerbSet, func(tok *command.VRFToken, _ netconf.Manager) error {
		called = tok.Name == "blue"
		return nil
	})
	mustRun(t, d, nil, "set vrf 1 name blue")
	if !called {
		t.Error("replacement handler not called")
	}
	if got := len(d.Keys()); got != 15 {
		t.Errorf("len(Keys()) = %d after replacement, want 15", got)
	}
}

func TestSetInterfaceSaves(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := &recordingManager{}
	mustRun(t, d, mgr, "set interface name em0 mtu 1500")

	want := []netconf.Interface{{Name: "em0", MTU: 1500, Up: true}}
	if diff := cmp.Diff(want, mgr.saved, netipComparers); diff != "" {
		t.Errorf("saved mismatch (-want +got):\n%s", diff)
	}
	if got := out.String(); got != "interface em0 configured\n" {
		t.Errorf("output = %q", got)
	}

	if err := run(t, d, mgr, "set interface mtu 1500"); err == nil {
		t.Error("set interface without name succeeded")
	}
}

func TestSetInterfaceMerges(t *testing.T) {
	d, _ := newTestDispatcher()
	mgr := netconf.NewMemory()
	for _, line := range []string{
		"set interface type bridge name br0 member em0",
		"set interface name br0 member em1 stp",
		"set interface name br0 inet address 192.0.2.1/24",
		"set interface name br0 inet address 192.0.2.1/24",
		"set interface name br0 group lan",
		"set interface name br0 description trunk mtu 9000 down",
	} {
		mustRun(t, d, mgr, line)
	}
	ifc, err := mgr.GetInterface("br0")
	if err != nil {
		t.Fatal(err)
	}
	if ifc.Type != netconf.TypeBridge || ifc.MTU != 9000 || ifc.Up || ifc.Description != "trunk" {
		t.Errorf("br0 = %+v", ifc)
	}
	if diff := cmp.Diff([]string{"lan"}, ifc.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if len(ifc.Addresses) != 1 {
		t.Errorf("addresses = %v, want one", ifc.Addresses)
	}
	want := &netconf.BridgeOptions{Members: []string{"em0", "em1"}, STP: true}
	if diff := cmp.Diff(netconf.InterfaceOptions(want), ifc.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	if err := run(t, d, mgr, "set interface name br0 type vlan"); err == nil {
		t.Error("changing the type of br0 succeeded")
	}
}

func TestMergeOptions(t *testing.T) {
	tests := []struct {
		name      string
		cur, next netconf.InterfaceOptions
		want      netconf.InterfaceOptions
	}{
		{
			"lagg members replace",
			&netconf.LaggOptions{Members: []string{"em0"}, Protocol: "lacp"},
			&netconf.LaggOptions{Members: []string{"em2", "em3"}},
			&netconf.LaggOptions{Members: []string{"em2", "em3"}, Protocol: "lacp"},
		},
		{
			"vlan keeps unset fields",
			&netconf.VLANOptions{ID: 10, Parent: "em0"},
			&netconf.VLANOptions{PCP: 3},
			&netconf.VLANOptions{ID: 10, Parent: "em0", PCP: 3},
		},
		{
			"other type replaces",
			&netconf.VLANOptions{ID: 10},
			&netconf.CARPOptions{VHID: 1},
			&netconf.CARPOptions{VHID: 1},
		},
		{
			"nil current",
			nil,
			&netconf.WireGuardOptions{ListenPort: 51820},
			&netconf.WireGuardOptions{ListenPort: 51820},
		},
	}
	for _, tt := range tests {
		got := mergeOptions(tt.cur, tt.next)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestDeleteInterface(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()
	mustRun(t, d, mgr, "set interface name em0 group wan inet address 192.0.2.1/24")
	out.Reset()

	mustRun(t, d, mgr, "delete interface name em0 inet address 192.0.2.1/24")
	mustRun(t, d, mgr, "delete interface name em0 group wan")
	if err := run(t, d, mgr, "delete interface name em0 group wan"); err == nil {
		t.Error("removing a missing group succeeded")
	}
	mustRun(t, d, mgr, "delete interface name em0")
	err := run(t, d, mgr, "delete interface name em0")
	if !errors.Is(err, netconf.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}

	want := "address 192.0.2.1/24 removed from em0\n" +
		"interface em0 removed from group wan\n" +
		"interface em0 destroyed\n"
	if got := out.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
}

func TestDeleteInterfaceKeepsInterface(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()
	mustRun(t, d, mgr, "set interface name em0 mtu 9000 inet address 192.0.2.1/24")
	mustRun(t, d, mgr, "set interface name em0 inet address 198.51.100.1/24")
	mustRun(t, d, mgr, "set interface name em0 inet6 address 2001:db8::1/64")
	out.Reset()

	for _, line := range []string{
		"delete interface name em0 mtu 1500",
		"delete interface name em0 down",
		"delete interface name em0 description wan",
	} {
		if err := run(t, d, mgr, line); err == nil {
			t.Errorf("%s succeeded", line)
		}
	}
	if _, err := mgr.GetInterface("em0"); err != nil {
		t.Fatalf("em0 gone after refused deletes: %v", err)
	}

	mustRun(t, d, mgr, "delete interface name em0 inet")
	ifc, err := mgr.GetInterface("em0")
	if err != nil {
		t.Fatalf("em0 gone after removing inet addresses: %v", err)
	}
	want := []netip.Prefix{netip.MustParsePrefix("2001:db8::1/64")}
	if diff := cmp.Diff(want, ifc.Addresses, netipComparers); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}
	if ifc.MTU != 9000 {
		t.Errorf("MTU = %d, want 9000", ifc.MTU)
	}
	wantOut := "address 192.0.2.1/24 removed from em0\n" +
		"address 198.51.100.1/24 removed from em0\n"
	if got := out.String(); got != wantOut {
		t.Errorf("output =\n%s\nwant\n%s", got, wantOut)
	}

	if err := run(t, d, mgr, "delete interface name em0 inet"); err == nil {
		t.Error("removing absent inet addresses succeeded")
	}
}

func TestShowInterface(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()
	mgr.AddInterface(netconf.Interface{Name: "em0", Type: netconf.TypeEthernet, MTU: 1500, Groups: []string{"wan"}})
	mustRun(t, d, mgr, "show interfaces")

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("show interfaces printed %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Index Interface Type") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"lo0", "loopback", "127.0.0.1/8", "up"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("lo0 row %q lacks %q", lines[2], want)
		}
	}
	if !strings.Contains(lines[3], "::1/128") {
		t.Errorf("continuation line %q lacks ::1/128", lines[3])
	}
	if !strings.Contains(lines[4], "em0") {
		t.Errorf("last row %q is not em0", lines[4])
	}
	for _, l := range lines {
		if w := table.VisibleWidth(l); w > table.DefaultMaxWidth {
			t.Errorf("line %q is %d wide", l, w)
		}
	}

	out.Reset()
	mustRun(t, d, mgr, "show interfaces name lo0 inet6")
	if s := out.String(); strings.Contains(s, "127.0.0.1") || !strings.Contains(s, "::1/128") || strings.Contains(s, "em0") {
		t.Errorf("filtered output:\n%s", s)
	}

	out.Reset()
	mustRun(t, d, mgr, "show interfaces group wan")
	if s := out.String(); !strings.Contains(s, "em0") || strings.Contains(s, "lo0") {
		t.Errorf("group output:\n%s", s)
	}

	if err := run(t, d, mgr, "show interfaces name nope0"); err == nil {
		t.Error("show of a missing interface succeeded")
	}
}

func TestShowInterfaceTypeFilter(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()
	mgr.AddInterface(netconf.Interface{Name: "br0", Type: netconf.TypeBridge, Up: true, Groups: []string{"lan"}})
	mgr.AddInterface(netconf.Interface{Name: "em0", Type: netconf.TypeEthernet, Up: true, Groups: []string{"lan"}})

	for _, line := range []string{"show interfaces bridge up", "show interfaces bridge group lan"} {
		out.Reset()
		mustRun(t, d, mgr, line)
		s := out.String()
		if !strings.Contains(s, "br0") || strings.Contains(s, "lo0") || strings.Contains(s, "em0") {
			t.Errorf("%s:\n%s", line, s)
		}
	}
}

func TestRouteHandlers(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()

	mustRun(t, d, mgr, "set route 10.0.0.0/24 next-hop 192.0.2.1")
	mustRun(t, d, mgr, "set route 203.0.113.0/24 blackhole vrf 5")
	if got := out.String(); got != "route 10.0.0.0/24 added\nroute 203.0.113.0/24 added\n" {
		t.Errorf("output = %q", got)
	}

	for _, line := range []string{
		"set route 10.9.0.0/16",
		"set route 10.9.0.0/16 next-hop 2001:db8::1",
		"set route next-hop 192.0.2.1",
		"set route 10.0.0.0/24 next-hop 192.0.2.9",
		"delete route vrf 2",
	} {
		if err := run(t, d, mgr, line); err == nil {
			t.Errorf("%s: succeeded", line)
		}
	}

	out.Reset()
	mustRun(t, d, mgr, "show route 10.0.0.0/8")
	if s := out.String(); !strings.Contains(s, "10.0.0.0/24 192.0.2.1") || !strings.Contains(s, "UGS") {
		t.Errorf("show route:\n%s", s)
	}
	if err := run(t, d, mgr, "show route 172.16.0.0/12"); err == nil {
		t.Error("show route without match succeeded")
	}

	out.Reset()
	mustRun(t, d, mgr, "show route vrf 5")
	if s := out.String(); !strings.Contains(s, "blackhole") || !strings.Contains(s, "USB") {
		t.Errorf("show route vrf 5:\n%s", s)
	}

	out.Reset()
	mustRun(t, d, mgr, "delete route 10.0.0.0/24")
	if got := out.String(); got != "route 10.0.0.0/24 deleted\n" {
		t.Errorf("output = %q", got)
	}
	if err := run(t, d, mgr, "delete route 10.0.0.0/24"); !errors.Is(err, netconf.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestRouteText(t *testing.T) {
	tests := []struct {
		r       netconf.Route
		gateway string
		flags   string
	}{
		{netconf.Route{Destination: mustPrefix("10.0.0.0/8"), Gateway: mustAddr("192.0.2.1"), Flags: netconf.RouteStatic}, "192.0.2.1", "UGS"},
		{netconf.Route{Destination: mustPrefix("192.0.2.7/32"), Flags: netconf.RouteReject}, "reject", "UHR"},
		{netconf.Route{Destination: mustPrefix("192.0.2.0/24"), Interface: "em0"}, "link#em0", "U"},
		{netconf.Route{Destination: mustPrefix("2001:db8::/32")}, "direct", "U"},
	}
	for _, tt := range tests {
		if got := gatewayText(tt.r); got != tt.gateway {
			t.Errorf("gatewayText(%v) = %q, want %q", tt.r.Destination, got, tt.gateway)
		}
		if got := routeFlags(tt.r); got != tt.flags {
			t.Errorf("routeFlags(%v) = %q, want %q", tt.r.Destination, got, tt.flags)
		}
	}
}

func TestVRFHandlers(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()
	mgr.AddInterface(netconf.Interface{Name: "em0"})

	mustRun(t, d, mgr, "set vrf 2 name blue")
	mustRun(t, d, mgr, "set vrf 2 interface em0")
	want := "vrf 2 configured\ninterface em0 bound to vrf 2\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if err := run(t, d, mgr, "set vrf name red"); err == nil {
		t.Error("set vrf without table succeeded")
	}

	out.Reset()
	mustRun(t, d, mgr, "show vrf 2")
	if s := out.String(); !strings.Contains(s, "blue") || !strings.Contains(s, "em0") || strings.Contains(s, "default") {
		t.Errorf("show vrf 2:\n%s", s)
	}

	out.Reset()
	mustRun(t, d, mgr, "delete vrf 2 interface em0")
	mustRun(t, d, mgr, "delete vrf 2")
	want = "interface em0 removed from vrf 2\nvrf 2 deleted\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if err := run(t, d, mgr, "show vrf 2"); err == nil {
		t.Error("show of a deleted vrf succeeded")
	}
	ifc, _ := mgr.GetInterface("em0")
	if ifc.VRF != 0 {
		t.Errorf("em0 VRF = %d, want 0", ifc.VRF)
	}
}

func TestNeighborHandlers(t *testing.T) {
	d, out := newTestDispatcher()
	mgr := netconf.NewMemory()

	if err := run(t, d, mgr, "set arp 192.0.2.5"); err == nil {
		t.Error("set arp without mac succeeded")
	}
	mustRun(t, d, mgr, "set arp 192.0.2.5 mac 00:11:22:33:44:55 interface em0")
	mustRun(t, d, mgr, "set ndp 2001:db8::5 mac 00:11:22:33:44:66 temp")

	out.Reset()
	mustRun(t, d, mgr, "show arp")
	if s := out.String(); !strings.Contains(s, "00:11:22:33:44:55") || !strings.Contains(s, "permanent") {
		t.Errorf("show arp:\n%s", s)
	}
	out.Reset()
	mustRun(t, d, mgr, "show ndp")
	if s := out.String(); !strings.Contains(s, "2001:db8::5") || !strings.Contains(s, "reachable") {
		t.Errorf("show ndp:\n%s", s)
	}
	if err := run(t, d, mgr, "show arp 192.0.2.99"); err == nil {
		t.Error("show arp of a missing entry succeeded")
	}

	out.Reset()
	mustRun(t, d, mgr, "delete arp 192.0.2.5")
	if got := out.String(); got != "arp entry 192.0.2.5 deleted\n" {
		t.Errorf("output = %q", got)
	}
	if err := run(t, d, mgr, "delete ndp 2001:db8::99"); !errors.Is(err, netconf.ErrNotFound) {
		t.Errorf("delete of a missing ndp entry = %v, want ErrNotFound", err)
	}
}
