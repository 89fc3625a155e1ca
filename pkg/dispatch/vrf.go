package dispatch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/table"
)

func (d *Dispatcher) showVRF(tok *command.VRFToken, mgr netconf.Manager) error {
	vrfs, err := mgr.GetVRFs()
	if err != nil {
		return fmt.Errorf("show vrf: %w", err)
	}

	t := table.New()
	t.AddColumn(table.IndexKey, "Table", table.Priority(10), table.MinWidth(2), table.RightAlign())
	t.AddColumn("Name", "Name", table.Priority(8), table.MinWidth(4))
	t.AddColumn("Interfaces", "Interfaces", table.Priority(5), table.MinWidth(6))
	t.AddColumn("Routes", "Routes", table.Priority(2), table.RightAlign())

	for _, v := range vrfs {
		if tok.Table != nil && v.Table != *tok.Table {
			continue
		}
		if tok.Name != "" && v.Name != tok.Name {
			continue
		}
		routes, err := mgr.GetRoutes(v.Table)
		if err != nil {
			return fmt.Errorf("show vrf: table %d: %w", v.Table, err)
		}
		if err := t.AddRow(
			strconv.Itoa(v.Table),
			v.Name,
			strings.Join(v.Interfaces, "\n"),
			strconv.Itoa(len(routes)),
		); err != nil {
			return fmt.Errorf("show vrf: %w", err)
		}
	}
	if tok.Table != nil && t.Len() == 0 {
		return fmt.Errorf("show vrf: vrf %d not found", *tok.Table)
	}
	d.render(t)
	return nil
}

func (d *Dispatcher) setVRF(tok *command.VRFToken, mgr netconf.Manager) error {
	if tok.Table == nil {
		return errors.New("set vrf: table number required")
	}
	v := netconf.VRF{Table: *tok.Table, Name: tok.Name}
	if tok.Interface != "" {
		v.Interfaces = []string{tok.Interface}
	}
	if err := mgr.SaveVRF(v); err != nil {
		return fmt.Errorf("set vrf: %w", err)
	}
	if tok.Interface != "" {
		fmt.Fprintf(d.out, "interface %s bound to vrf %d\n", tok.Interface, v.Table)
	} else {
		fmt.Fprintf(d.out, "vrf %d configured\n", v.Table)
	}
	return nil
}

func (d *Dispatcher) deleteVRF(tok *command.VRFToken, mgr netconf.Manager) error {
	if tok.Table == nil {
		return errors.New("delete vrf: table number required")
	}
	if tok.Interface != "" {
		// Unbinding moves the interface back to the main table.
		if err := mgr.SaveVRF(netconf.VRF{Table: 0, Interfaces: []string{tok.Interface}}); err != nil {
			return fmt.Errorf("delete vrf: %w", err)
		}
		fmt.Fprintf(d.out, "interface %s removed from vrf %d\n", tok.Interface, *tok.Table)
		return nil
	}
	if err := mgr.DeleteVRF(*tok.Table); err != nil {
		return fmt.Errorf("delete vrf: %w", err)
	}
	fmt.Fprintf(d.out, "vrf %d deleted\n", *tok.Table)
	return nil
}
