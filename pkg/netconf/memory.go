package netconf

import (
	"fmt"
	"log/slog"
	"net/netip"
	"slices"
	"sort"
	"sync"
)

// Memory is a Manager backed by in-process tables. It is used for dry
// runs and tests; nothing it does touches the kernel.
type Memory struct {
	mu         sync.Mutex
	interfaces map[string]*Interface
	nextIndex  int
	routes     []Route
	vrfs       map[int]*VRF
	arp        []Neighbor
	ndp        []Neighbor
}

var _ Manager = (*Memory)(nil)

// NewMemory returns a Memory manager holding only a loopback interface
// and the main table.
func NewMemory() *Memory {
	m := &Memory{
		interfaces: make(map[string]*Interface),
		vrfs:       map[int]*VRF{0: {Table: 0, Name: "default"}},
		nextIndex:  1,
	}
	m.add(Interface{
		Name:      "lo0",
		Type:      TypeLoopback,
		Up:        true,
		MTU:       16384,
		Flags:     []string{"UP", "LOOPBACK", "RUNNING", "MULTICAST"},
		Addresses: []netip.Prefix{netip.MustParsePrefix("127.0.0.1/8"), netip.MustParsePrefix("::1/128")},
	})
	return m
}

// AddInterface seeds an interface as if the kernel already had it.
func (m *Memory) AddInterface(ifc Interface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(ifc)
}

func (m *Memory) add(ifc Interface) {
	c := ifc.Clone()
	if c.Index == 0 {
		c.Index = m.nextIndex
	}
	if c.Index >= m.nextIndex {
		m.nextIndex = c.Index + 1
	}
	m.interfaces[c.Name] = &c
}

func (m *Memory) GetInterfaces() ([]Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Interface, 0, len(m.interfaces))
	for _, ifc := range m.interfaces {
		out = append(out, ifc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (m *Memory) GetInterface(name string) (*Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ifc, ok := m.interfaces[name]
	if !ok {
		return nil, fmt.Errorf("interface %s: %w", name, ErrNotFound)
	}
	c := ifc.Clone()
	return &c, nil
}

func (m *Memory) SaveInterface(ifc Interface) error {
	if ifc.Name == "" {
		return fmt.Errorf("interface name required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vrfs[ifc.VRF]; !ok {
		return fmt.Errorf("interface %s: vrf %d: %w", ifc.Name, ifc.VRF, ErrNotFound)
	}
	if old, ok := m.interfaces[ifc.Name]; ok {
		ifc.Index = old.Index
	} else {
		ifc.Index = 0
	}
	m.add(ifc)
	slog.Debug("interface saved", "name", ifc.Name, "type", ifc.Type)
	return nil
}

func (m *Memory) DestroyInterface(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interfaces[name]; !ok {
		return fmt.Errorf("interface %s: %w", name, ErrNotFound)
	}
	delete(m.interfaces, name)
	m.routes = slices.DeleteFunc(m.routes, func(r Route) bool { return r.Interface == name })
	slog.Debug("interface destroyed", "name", name)
	return nil
}

func (m *Memory) RemoveInterfaceAddress(name string, addr netip.Prefix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ifc, ok := m.interfaces[name]
	if !ok {
		return fmt.Errorf("interface %s: %w", name, ErrNotFound)
	}
	if !ifc.HasAddress(addr) {
		return fmt.Errorf("address %s on %s: %w", addr, name, ErrNotFound)
	}
	ifc.Addresses = slices.DeleteFunc(ifc.Addresses, func(a netip.Prefix) bool { return a == addr })
	return nil
}

func (m *Memory) GetRoutes(table int) ([]Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Route
	for _, r := range m.routes {
		if r.Table == table {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) AddRoute(r Route) error {
	if !r.Destination.IsValid() {
		return fmt.Errorf("route destination required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.routes {
		if existing.Table == r.Table && existing.Destination == r.Destination {
			return fmt.Errorf("route %s table %d already exists", r.Destination, r.Table)
		}
	}
	r.Flags |= RouteStatic
	if r.Protocol == "" {
		r.Protocol = "static"
	}
	m.routes = append(m.routes, r)
	return nil
}

func (m *Memory) DeleteRoute(r Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.routes)
	m.routes = slices.DeleteFunc(m.routes, func(e Route) bool {
		return e.Table == r.Table && e.Destination == r.Destination
	})
	if len(m.routes) == n {
		return fmt.Errorf("route %s table %d: %w", r.Destination, r.Table, ErrNotFound)
	}
	return nil
}

func (m *Memory) GetVRFs() ([]VRF, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]VRF, 0, len(m.vrfs))
	for _, v := range m.vrfs {
		c := *v
		c.Interfaces = nil
		for _, ifc := range m.interfaces {
			if ifc.VRF == v.Table {
				c.Interfaces = append(c.Interfaces, ifc.Name)
			}
		}
		sort.Strings(c.Interfaces)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out, nil
}

func (m *Memory) SaveVRF(v VRF) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range v.Interfaces {
		if _, ok := m.interfaces[name]; !ok {
			return fmt.Errorf("interface %s: %w", name, ErrNotFound)
		}
	}
	for _, name := range v.Interfaces {
		m.interfaces[name].VRF = v.Table
	}
	existing, ok := m.vrfs[v.Table]
	if !ok {
		m.vrfs[v.Table] = &VRF{Table: v.Table, Name: v.Name}
	} else if v.Name != "" {
		existing.Name = v.Name
	}
	return nil
}

func (m *Memory) DeleteVRF(table int) error {
	if table == 0 {
		return fmt.Errorf("the main table cannot be deleted")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vrfs[table]; !ok {
		return fmt.Errorf("vrf %d: %w", table, ErrNotFound)
	}
	delete(m.vrfs, table)
	for _, ifc := range m.interfaces {
		if ifc.VRF == table {
			ifc.VRF = 0
		}
	}
	m.routes = slices.DeleteFunc(m.routes, func(r Route) bool { return r.Table == table })
	return nil
}

func (m *Memory) GetArpEntries() ([]Neighbor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.arp), nil
}

func (m *Memory) SetArpEntry(n Neighbor) error {
	if !n.IP.Is4() {
		return fmt.Errorf("arp entry requires an IPv4 address, got %s", n.IP)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arp = setNeighbor(m.arp, n)
	return nil
}

func (m *Memory) DeleteArpEntry(n Neighbor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.arp, ok = deleteNeighbor(m.arp, n.IP)
	if !ok {
		return fmt.Errorf("arp entry %s: %w", n.IP, ErrNotFound)
	}
	return nil
}

func (m *Memory) GetNdpEntries() ([]Neighbor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ndp), nil
}

func (m *Memory) SetNdpEntry(n Neighbor) error {
	if !n.IP.Is6() || n.IP.Is4In6() {
		return fmt.Errorf("ndp entry requires an IPv6 address, got %s", n.IP)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ndp = setNeighbor(m.ndp, n)
	return nil
}

func (m *Memory) DeleteNdpEntry(n Neighbor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.ndp, ok = deleteNeighbor(m.ndp, n.IP)
	if !ok {
		return fmt.Errorf("ndp entry %s: %w", n.IP, ErrNotFound)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func setNeighbor(table []Neighbor, n Neighbor) []Neighbor {
	if n.State == "" {
		if n.Permanent {
			n.State = "permanent"
		} else {
			n.State = "reachable"
		}
	}
	for i := range table {
		if table[i].IP == n.IP {
			table[i] = n
			return table
		}
	}
	return append(table, n)
}

func deleteNeighbor(table []Neighbor, ip netip.Addr) ([]Neighbor, bool) {
	n := len(table)
	table = slices.DeleteFunc(table, func(e Neighbor) bool { return e.IP == ip })
	return table, len(table) != n
}
