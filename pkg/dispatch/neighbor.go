package dispatch

import (
	"fmt"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/table"
)

// neighborOps binds the neighbor handlers to one address family.
type neighborOps struct {
	noun string
	get  func() ([]netconf.Neighbor, error)
	set  func(netconf.Neighbor) error
	del  func(netconf.Neighbor) error
}

func arpOps(mgr netconf.Manager) neighborOps {
	return neighborOps{noun: "arp", get: mgr.GetArpEntries, set: mgr.SetArpEntry, del: mgr.DeleteArpEntry}
}

func ndpOps(mgr netconf.Manager) neighborOps {
	return neighborOps{noun: "ndp", get: mgr.GetNdpEntries, set: mgr.SetNdpEntry, del: mgr.DeleteNdpEntry}
}

func (d *Dispatcher) showArp(tok *command.ArpToken, mgr netconf.Manager) error {
	return d.showNeighbors(arpOps(mgr), tok.NeighborFields)
}

func (d *Dispatcher) setArp(tok *command.ArpToken, mgr netconf.Manager) error {
	return d.setNeighbor(arpOps(mgr), tok.NeighborFields)
}

func (d *Dispatcher) deleteArp(tok *command.ArpToken, mgr netconf.Manager) error {
	return d.deleteNeighbor(arpOps(mgr), tok.NeighborFields)
}

func (d *Dispatcher) showNdp(tok *command.NdpToken, mgr netconf.Manager) error {
	return d.showNeighbors(ndpOps(mgr), tok.NeighborFields)
}

func (d *Dispatcher) setNdp(tok *command.NdpToken, mgr netconf.Manager) error {
	return d.setNeighbor(ndpOps(mgr), tok.NeighborFields)
}

func (d *Dispatcher) deleteNdp(tok *command.NdpToken, mgr netconf.Manager) error {
	return d.deleteNeighbor(ndpOps(mgr), tok.NeighborFields)
}

func (d *Dispatcher) showNeighbors(ops neighborOps, f command.NeighborFields) error {
	entries, err := ops.get()
	if err != nil {
		return fmt.Errorf("show %s: %w", ops.noun, err)
	}

	t := table.New()
	t.AddColumn("Address", "Address", table.Priority(10), table.MinWidth(7))
	t.AddColumn("MAC", "Link-layer Address", table.Priority(8), table.MinWidth(8))
	t.AddColumn("Interface", "Interface", table.Priority(6), table.MinWidth(4))
	t.AddColumn("State", "State", table.Priority(2))

	for _, n := range entries {
		if f.IP.IsValid() && n.IP != f.IP {
			continue
		}
		if f.Interface != "" && n.Interface != f.Interface {
			continue
		}
		mac := "(incomplete)"
		if len(n.MAC) > 0 {
			mac = n.MAC.String()
		}
		if err := t.AddRow(n.IP.String(), mac, n.Interface, n.State); err != nil {
			return fmt.Errorf("show %s: %w", ops.noun, err)
		}
	}
	if f.IP.IsValid() && t.Len() == 0 {
		return fmt.Errorf("show %s: no entry for %s", ops.noun, f.IP)
	}
	d.render(t)
	return nil
}

func (d *Dispatcher) setNeighbor(ops neighborOps, f command.NeighborFields) error {
	if !f.IP.IsValid() {
		return fmt.Errorf("set %s: address required", ops.noun)
	}
	if len(f.MAC) == 0 {
		return fmt.Errorf("set %s: mac required", ops.noun)
	}
	n := netconf.Neighbor{
		IP:        f.IP,
		MAC:       f.MAC,
		Interface: f.Interface,
		Permanent: !f.Temporary,
	}
	if err := ops.set(n); err != nil {
		return fmt.Errorf("set %s: %w", ops.noun, err)
	}
	fmt.Fprintf(d.out, "%s entry %s added\n", ops.noun, f.IP)
	return nil
}

func (d *Dispatcher) deleteNeighbor(ops neighborOps, f command.NeighborFields) error {
	if !f.IP.IsValid() {
		return fmt.Errorf("delete %s: address required", ops.noun)
	}
	if err := ops.del(netconf.Neighbor{IP: f.IP, Interface: f.Interface}); err != nil {
		return fmt.Errorf("delete %s: %w", ops.noun, err)
	}
	fmt.Fprintf(d.out, "%s entry %s deleted\n", ops.noun, f.IP)
	return nil
}
