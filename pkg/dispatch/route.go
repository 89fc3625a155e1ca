package dispatch

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/table"
)

func (d *Dispatcher) showRoute(tok *command.RouteToken, mgr netconf.Manager) error {
	routes, err := mgr.GetRoutes(tok.Table())
	if err != nil {
		return fmt.Errorf("show route: %w", err)
	}

	t := table.New()
	t.AddColumn("Destination", "Destination", table.Priority(10), table.MinWidth(9))
	t.AddColumn("Gateway", "Gateway", table.Priority(8), table.MinWidth(7))
	t.AddColumn("Flags", "Flags", table.Priority(2))
	t.AddColumn("Interface", "Interface", table.Priority(6), table.MinWidth(4))
	t.AddColumn("Protocol", "Proto", table.Priority(3))
	t.AddColumn("VRF", "VRF", table.Priority(4), table.RightAlign())

	for _, r := range routes {
		if tok.Prefix.IsValid() && !within(r.Destination, tok.Prefix) {
			continue
		}
		if tok.Interface != "" && r.Interface != tok.Interface {
			continue
		}
		if err := t.AddRow(
			r.Destination.String(),
			gatewayText(r),
			routeFlags(r),
			r.Interface,
			r.Protocol,
			strconv.Itoa(r.Table),
		); err != nil {
			return fmt.Errorf("show route: %w", err)
		}
	}
	if tok.Prefix.IsValid() && t.Len() == 0 {
		return fmt.Errorf("show route: no route matches %s", tok.Prefix)
	}
	d.render(t)
	return nil
}

func (d *Dispatcher) setRoute(tok *command.RouteToken, mgr netconf.Manager) error {
	if !tok.Prefix.IsValid() {
		return errors.New("set route: destination prefix required")
	}
	via := tok.Via()
	if !via.IsValid() && tok.Interface == "" && !tok.Blackhole && !tok.Reject {
		return errors.New("set route: next-hop, gateway, interface, blackhole or reject required")
	}
	if via.IsValid() && via.Is4() != tok.Prefix.Addr().Is4() {
		return fmt.Errorf("set route: gateway %s does not match the family of %s", via, tok.Prefix)
	}

	r := routeFromToken(tok)
	if err := mgr.AddRoute(r); err != nil {
		return fmt.Errorf("set route: %w", err)
	}
	fmt.Fprintf(d.out, "route %s added\n", r.Destination)
	return nil
}

func (d *Dispatcher) deleteRoute(tok *command.RouteToken, mgr netconf.Manager) error {
	if !tok.Prefix.IsValid() {
		return errors.New("delete route: destination prefix required")
	}
	r := routeFromToken(tok)
	if err := mgr.DeleteRoute(r); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	fmt.Fprintf(d.out, "route %s deleted\n", r.Destination)
	return nil
}

func routeFromToken(tok *command.RouteToken) netconf.Route {
	r := netconf.Route{
		Destination: tok.Prefix,
		Gateway:     tok.Via(),
		Interface:   tok.Interface,
		Table:       tok.Table(),
	}
	if tok.Blackhole {
		r.Flags |= netconf.RouteBlackhole
	}
	if tok.Reject {
		r.Flags |= netconf.RouteReject
	}
	return r
}

func gatewayText(r netconf.Route) string {
	switch {
	case r.Gateway.IsValid():
		return r.Gateway.String()
	case r.Has(netconf.RouteBlackhole):
		return "blackhole"
	case r.Has(netconf.RouteReject):
		return "reject"
	case r.Interface != "":
		return "link#" + r.Interface
	default:
		return "direct"
	}
}

// routeFlags renders the BSD netstat flag letters of r.
func routeFlags(r netconf.Route) string {
	f := "U"
	if r.Gateway.IsValid() {
		f += "G"
	}
	if r.Destination.Bits() == r.Destination.Addr().BitLen() {
		f += "H"
	}
	if r.Has(netconf.RouteStatic) {
		f += "S"
	}
	if r.Has(netconf.RouteBlackhole) {
		f += "B"
	}
	if r.Has(netconf.RouteReject) {
		f += "R"
	}
	return f
}
