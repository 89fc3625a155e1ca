package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
)

// Generate writes the "set" commands that rebuild the configuration held
// by mgr: VRFs first, then interfaces with their addresses, static routes
// and permanent neighbor entries. Every line parses with command.Parse.
func Generate(w io.Writer, mgr netconf.Manager) error {
	var lines []string
	emit := func(tok command.Token) {
		lines = append(lines, (&command.Command{Verb: command.VerbSet, Object: tok}).String())
	}

	vrfs, err := mgr.GetVRFs()
	if err != nil {
		return fmt.Errorf("generate: vrfs: %w", err)
	}
	for _, v := range vrfs {
		if v.Table == 0 {
			continue
		}
		table := v.Table
		tok := &command.VRFToken{Table: &table}
		if !hasSpace(v.Name) {
			tok.Name = v.Name
		}
		emit(tok)
	}

	ifcs, err := mgr.GetInterfaces()
	if err != nil {
		return fmt.Errorf("generate: interfaces: %w", err)
	}
	for _, ifc := range ifcs {
		for _, tok := range interfaceTokens(ifc) {
			emit(tok)
		}
	}

	for _, v := range vrfs {
		routes, err := mgr.GetRoutes(v.Table)
		if err != nil {
			return fmt.Errorf("generate: routes of table %d: %w", v.Table, err)
		}
		for _, r := range routes {
			if !r.Has(netconf.RouteStatic) {
				continue
			}
			emit(routeToken(r))
		}
	}

	arp, err := mgr.GetArpEntries()
	if err != nil {
		return fmt.Errorf("generate: arp: %w", err)
	}
	for _, n := range arp {
		if n.Permanent && len(n.MAC) > 0 {
			emit(&command.ArpToken{NeighborFields: neighborFields(n)})
		}
	}
	ndp, err := mgr.GetNdpEntries()
	if err != nil {
		return fmt.Errorf("generate: ndp: %w", err)
	}
	for _, n := range ndp {
		if n.Permanent && len(n.MAC) > 0 {
			emit(&command.NdpToken{NeighborFields: neighborFields(n)})
		}
	}

	for _, l := range lines {
		if _, err := io.WriteString(w, l+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// interfaceTokens returns one token carrying the interface attributes,
// then one per group and one per address.
func interfaceTokens(ifc netconf.Interface) []command.Token {
	up := ifc.Up
	base := &command.InterfaceToken{
		Name:    ifc.Name,
		Type:    ifc.Type,
		MTU:     ifc.MTU,
		Up:      &up,
		Options: ifc.Options,
	}
	if ifc.VRF != 0 {
		vrf := ifc.VRF
		base.VRF = &vrf
	}
	if hasSpace(ifc.Description) {
		slog.Debug("generate: description not representable", "interface", ifc.Name)
	} else {
		base.Description = ifc.Description
	}
	if base.MTU < 68 || base.MTU > 65535 {
		base.MTU = 0
	}

	toks := []command.Token{base}
	for _, g := range ifc.Groups {
		toks = append(toks, &command.InterfaceToken{Name: ifc.Name, Group: g})
	}
	for _, a := range ifc.Addresses {
		toks = append(toks, &command.InterfaceToken{Name: ifc.Name, Address: a})
	}
	return toks
}

func routeToken(r netconf.Route) *command.RouteToken {
	tok := &command.RouteToken{
		Prefix:    r.Destination,
		Interface: r.Interface,
		Blackhole: r.Has(netconf.RouteBlackhole),
		Reject:    r.Has(netconf.RouteReject),
	}
	if r.Gateway.IsValid() {
		tok.NextHop = r.Gateway
	}
	if r.Table != 0 {
		table := r.Table
		tok.VRF = &table
	}
	return tok
}

func neighborFields(n netconf.Neighbor) command.NeighborFields {
	return command.NeighborFields{IP: n.IP, MAC: n.MAC, Interface: n.Interface}
}

func hasSpace(s string) bool {
	return strings.ContainsAny(s, " \t\n")
}
