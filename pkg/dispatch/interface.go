package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/table"
)

func (d *Dispatcher) showInterface(tok *command.InterfaceToken, mgr netconf.Manager) error {
	ifcs, err := mgr.GetInterfaces()
	if err != nil {
		return fmt.Errorf("show interface: %w", err)
	}

	var matched []netconf.Interface
	for _, ifc := range ifcs {
		if tok.Name != "" && ifc.Name != tok.Name {
			continue
		}
		if tok.Group != "" && !slices.Contains(ifc.Groups, tok.Group) {
			continue
		}
		if tok.Type != "" && ifc.Type != tok.Type {
			continue
		}
		matched = append(matched, ifc)
	}
	if tok.Name != "" && len(matched) == 0 {
		return fmt.Errorf("show interface: interface %s not found", tok.Name)
	}

	t := table.New()
	t.AddColumn(table.IndexKey, "Index", table.Priority(5), table.MinWidth(2), table.RightAlign())
	t.AddColumn("Interface", "Interface", table.Priority(10), table.MinWidth(4))
	t.AddColumn("Type", "Type", table.Priority(3))
	t.AddColumn("State", "State", table.Priority(8), table.MinWidth(4))
	t.AddColumn("MTU", "MTU", table.Priority(4), table.RightAlign())
	t.AddColumn("VRF", "VRF", table.Priority(4), table.RightAlign())
	t.AddColumn("Addresses", "Addresses", table.Priority(6), table.MinWidth(8))
	t.AddColumn("Flags", "Flags", table.Priority(1))
	t.SetSortColumn(0)

	for _, ifc := range matched {
		index := "-"
		if ifc.Index > 0 {
			index = strconv.Itoa(ifc.Index)
		}
		var addrs []string
		for _, a := range ifc.Addresses {
			if tok.Family == "" || familyOf(a) == tok.Family {
				addrs = append(addrs, a.String())
			}
		}
		if err := t.AddRow(
			index,
			ifc.Name,
			string(ifc.Type),
			d.state(ifc.Up),
			strconv.Itoa(ifc.MTU),
			strconv.Itoa(ifc.VRF),
			strings.Join(addrs, "\n"),
			strings.Join(ifc.Flags, ","),
		); err != nil {
			return fmt.Errorf("show interface: %w", err)
		}
	}
	d.render(t)
	return nil
}

func (d *Dispatcher) setInterface(tok *command.InterfaceToken, mgr netconf.Manager) error {
	if tok.Name == "" {
		return errors.New("set interface: interface name required")
	}
	ifc, err := mgr.GetInterface(tok.Name)
	switch {
	case err == nil:
		if tok.Type != "" && ifc.Type != "" && ifc.Type != tok.Type {
			return fmt.Errorf("set interface: %s is a %s interface, not %s", ifc.Name, ifc.Type, tok.Type)
		}
	case errors.Is(err, netconf.ErrNotFound):
		ifc = &netconf.Interface{Name: tok.Name, Type: tok.Type, Up: true}
	default:
		return fmt.Errorf("set interface: %w", err)
	}

	applyInterface(ifc, tok)
	if err := mgr.SaveInterface(*ifc); err != nil {
		return fmt.Errorf("set interface: %w", err)
	}
	fmt.Fprintf(d.out, "interface %s configured\n", ifc.Name)
	return nil
}

// applyInterface merges the fields given on the command line into ifc.
func applyInterface(ifc *netconf.Interface, tok *command.InterfaceToken) {
	if ifc.Type == "" {
		ifc.Type = tok.Type
	}
	if tok.MTU > 0 {
		ifc.MTU = tok.MTU
	}
	if tok.VRF != nil {
		ifc.VRF = *tok.VRF
	}
	if tok.Up != nil {
		ifc.Up = *tok.Up
	}
	if tok.Description != "" {
		ifc.Description = tok.Description
	}
	if tok.Group != "" && !slices.Contains(ifc.Groups, tok.Group) {
		ifc.Groups = append(ifc.Groups, tok.Group)
	}
	if tok.Address.IsValid() && !ifc.HasAddress(tok.Address) {
		ifc.Addresses = append(ifc.Addresses, tok.Address)
	}
	if tok.Options != nil {
		ifc.Options = mergeOptions(ifc.Options, tok.Options)
	}
}

// mergeOptions overlays the non-zero fields of next on cur. Options of a
// different type replace cur outright.
func mergeOptions(cur, next netconf.InterfaceOptions) netconf.InterfaceOptions {
	if cur == nil || cur.OptionsType() != next.OptionsType() {
		return next.CloneOptions()
	}
	out := cur.CloneOptions()
	switch o := out.(type) {
	case *netconf.BridgeOptions:
		n := next.(*netconf.BridgeOptions)
		for _, m := range n.Members {
			if !slices.Contains(o.Members, m) {
				o.Members = append(o.Members, m)
			}
		}
		o.STP = o.STP || n.STP
		o.Priority = pick(n.Priority, o.Priority)
	case *netconf.LaggOptions:
		n := next.(*netconf.LaggOptions)
		if len(n.Members) > 0 {
			o.Members = append([]string(nil), n.Members...)
		}
		o.Protocol = pick(n.Protocol, o.Protocol)
	case *netconf.VLANOptions:
		n := next.(*netconf.VLANOptions)
		o.ID = pick(n.ID, o.ID)
		o.Parent = pick(n.Parent, o.Parent)
		o.PCP = pick(n.PCP, o.PCP)
	case *netconf.TunnelOptions:
		n := next.(*netconf.TunnelOptions)
		if n.Source.IsValid() {
			o.Source = n.Source
		}
		if n.Destination.IsValid() {
			o.Destination = n.Destination
		}
		o.Key = pick(n.Key, o.Key)
		o.TunnelVRF = pick(n.TunnelVRF, o.TunnelVRF)
	case *netconf.VXLANOptions:
		n := next.(*netconf.VXLANOptions)
		o.VNI = pick(n.VNI, o.VNI)
		if n.Local.IsValid() {
			o.Local = n.Local
		}
		if n.Remote.IsValid() {
			o.Remote = n.Remote
		}
		o.Port = pick(n.Port, o.Port)
	case *netconf.WLANOptions:
		n := next.(*netconf.WLANOptions)
		o.SSID = pick(n.SSID, o.SSID)
		o.Channel = pick(n.Channel, o.Channel)
		o.Parent = pick(n.Parent, o.Parent)
		o.AuthMode = pick(n.AuthMode, o.AuthMode)
	case *netconf.WireGuardOptions:
		n := next.(*netconf.WireGuardOptions)
		o.ListenPort = pick(n.ListenPort, o.ListenPort)
	case *netconf.CARPOptions:
		n := next.(*netconf.CARPOptions)
		o.VHID = pick(n.VHID, o.VHID)
		o.AdvSkew = pick(n.AdvSkew, o.AdvSkew)
	}
	return out
}

// pick returns v unless it is the zero value, in which case it returns
// fallback.
func pick[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

func (d *Dispatcher) deleteInterface(tok *command.InterfaceToken, mgr netconf.Manager) error {
	if tok.Name == "" {
		return errors.New("delete interface: interface name required")
	}

	switch {
	case tok.Address.IsValid():
		if err := mgr.RemoveInterfaceAddress(tok.Name, tok.Address); err != nil {
			return fmt.Errorf("delete interface: failed to remove address %s: %w", tok.Address, err)
		}
		fmt.Fprintf(d.out, "address %s removed from %s\n", tok.Address, tok.Name)
	case tok.Group != "":
		ifc, err := mgr.GetInterface(tok.Name)
		if err != nil {
			return fmt.Errorf("delete interface: %w", err)
		}
		if !slices.Contains(ifc.Groups, tok.Group) {
			return fmt.Errorf("delete interface: %s is not in group %s", tok.Name, tok.Group)
		}
		ifc.Groups = slices.DeleteFunc(ifc.Groups, func(g string) bool { return g == tok.Group })
		if err := mgr.SaveInterface(*ifc); err != nil {
			return fmt.Errorf("delete interface: %w", err)
		}
		fmt.Fprintf(d.out, "interface %s removed from group %s\n", tok.Name, tok.Group)
	case tok.Family != "":
		ifc, err := mgr.GetInterface(tok.Name)
		if err != nil {
			return fmt.Errorf("delete interface: %w", err)
		}
		removed := 0
		for _, a := range ifc.Addresses {
			if familyOf(a) != tok.Family {
				continue
			}
			if err := mgr.RemoveInterfaceAddress(tok.Name, a); err != nil {
				return fmt.Errorf("delete interface: failed to remove address %s: %w", a, err)
			}
			fmt.Fprintf(d.out, "address %s removed from %s\n", a, tok.Name)
			removed++
		}
		if removed == 0 {
			return fmt.Errorf("delete interface: %s has no %s addresses", tok.Name, tok.Family)
		}
	case tok.MTU != 0 || tok.VRF != nil || tok.Up != nil || tok.Description != "" || tok.Options != nil:
		return fmt.Errorf("delete interface: attributes of %s cannot be deleted, use set", tok.Name)
	default:
		if err := mgr.DestroyInterface(tok.Name); err != nil {
			return fmt.Errorf("delete interface: %w", err)
		}
		fmt.Fprintf(d.out, "interface %s destroyed\n", tok.Name)
	}
	return nil
}
