package command

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/psaab/netcli/pkg/netconf"
)

// InterfaceToken is the "interfaces" noun.
type InterfaceToken struct {
	Name        string
	Group       string
	Type        netconf.InterfaceType
	Family      string // "inet", "inet6" or empty
	Address     netip.Prefix
	MTU         int
	VRF         *int
	Up          *bool
	Description string

	// Options carries the type-specific keywords, nil when none were given.
	Options netconf.InterfaceOptions
}

func (*InterfaceToken) Kind() Kind { return KindInterface }
func (*InterfaceToken) sealed()    {}

func (t *InterfaceToken) Clone() Token {
	c := *t
	c.VRF = cloneIntPtr(t.VRF)
	if t.Up != nil {
		up := *t.Up
		c.Up = &up
	}
	if t.Options != nil {
		c.Options = t.Options.CloneOptions()
	}
	return &c
}

func (t *InterfaceToken) Complete(partial string) []string {
	seen := map[string]bool{}
	for kw := range interfaceKeywords {
		seen[kw] = true
	}
	for typ, table := range typeKeywords {
		if t.Type != "" && typ != t.Type {
			continue
		}
		for kw := range table {
			seen[kw] = true
		}
	}
	all := make([]string, 0, len(seen))
	for kw := range seen {
		all = append(all, kw)
	}
	return completeWords(all, partial)
}

func (t *InterfaceToken) String() string {
	parts := []string{"interface"}
	if t.Type != "" {
		parts = append(parts, "type", string(t.Type))
	}
	if t.Name != "" {
		parts = append(parts, "name", t.Name)
	}
	if t.Group != "" {
		parts = append(parts, "group", t.Group)
	}
	if t.Description != "" {
		parts = append(parts, "description", t.Description)
	}
	if t.MTU > 0 {
		parts = append(parts, "mtu", strconv.Itoa(t.MTU))
	}
	if t.VRF != nil {
		parts = append(parts, "vrf", strconv.Itoa(*t.VRF))
	}
	if t.Family != "" || t.Address.IsValid() {
		family := t.Family
		if family == "" {
			family = familyOf(t.Address.Addr())
		}
		parts = append(parts, family)
		if t.Address.IsValid() {
			parts = append(parts, "address", t.Address.String())
		}
	}
	parts = append(parts, optionWords(t.Options)...)
	if t.Up != nil {
		if *t.Up {
			parts = append(parts, "up")
		} else {
			parts = append(parts, "down")
		}
	}
	return words(parts...)
}

// InterfaceKeywords returns the keywords accepted for interfaces of type
// typ, or for any type when typ is empty.
func InterfaceKeywords(typ netconf.InterfaceType) []string {
	return (&InterfaceToken{Type: typ}).Complete("")
}

// keywordFunc consumes the arguments of one keyword; the keyword itself
// has already been consumed.
type keywordFunc func(t *InterfaceToken, c *cursor) error

var interfaceKeywords map[string]keywordFunc

// typeKeywords holds the keywords each interface type adds to the common
// set. See interface_types.go.
var typeKeywords = map[netconf.InterfaceType]map[string]keywordFunc{}

func registerTypeKeyword(typ netconf.InterfaceType, kw string, fn keywordFunc) {
	table, ok := typeKeywords[typ]
	if !ok {
		table = make(map[string]keywordFunc)
		typeKeywords[typ] = table
	}
	table[kw] = fn
}

func init() {
	interfaceKeywords = map[string]keywordFunc{
		"name":        kwName,
		"group":       kwGroup,
		"type":        kwType,
		"inet":        kwFamily("inet"),
		"inet6":       kwFamily("inet6"),
		"mtu":         kwMTU,
		"fib":         kwVRF("fib"),
		"vrf":         kwVRF("vrf"),
		"vlan":        kwVLAN,
		"lagg":        kwLagg,
		"up":          kwAdmin(true),
		"down":        kwAdmin(false),
		"description": kwDescription,
	}
}

// keyword resolves kw against the common keywords, then against the
// keywords of the token's type. When no type is known yet, a keyword that
// belongs to exactly one type selects that type.
func (t *InterfaceToken) keyword(kw string) keywordFunc {
	if fn, ok := interfaceKeywords[kw]; ok {
		return fn
	}
	if t.Type != "" {
		return typeKeywords[t.Type][kw]
	}
	var (
		owner netconf.InterfaceType
		found keywordFunc
	)
	for typ, table := range typeKeywords {
		fn, ok := table[kw]
		if !ok {
			continue
		}
		if found != nil {
			return nil
		}
		owner, found = typ, fn
	}
	if found == nil {
		return nil
	}
	return func(t *InterfaceToken, c *cursor) error {
		t.Type = owner
		return found(t, c)
	}
}

func parseInterface(toks []string, start int) (Token, int, error) {
	t := &InterfaceToken{}
	c := &cursor{toks: toks, pos: start}

	// Legacy form: interfaces <type> [<name>] [keywords...]. The word after
	// the type is a name unless the type accepts it as a keyword.
	if typ, ok := netconf.ParseInterfaceType(c.peek()); ok {
		typed := &InterfaceToken{Type: typ}
		t.Type = typ
		c.next()
		if !c.done() && typed.keyword(c.peek()) == nil {
			t.Name = c.next()
		}
	}

	for !c.done() {
		fn := t.keyword(c.peek())
		if fn == nil {
			break
		}
		c.next()
		if err := fn(t, c); err != nil {
			return nil, 0, err
		}
	}
	return t, c.pos, nil
}

func kwName(t *InterfaceToken, c *cursor) error {
	name, err := c.value("name")
	if err != nil {
		return err
	}
	t.Name = name
	return nil
}

func kwGroup(t *InterfaceToken, c *cursor) error {
	g, err := c.value("group")
	if err != nil {
		return err
	}
	t.Group = g
	return nil
}

// kwType handles "type <type> [name]".
func kwType(t *InterfaceToken, c *cursor) error {
	s, err := c.value("type")
	if err != nil {
		return err
	}
	typ, ok := netconf.ParseInterfaceType(s)
	if !ok {
		return &FieldError{Keyword: "type", Value: s, Err: fmt.Errorf("unknown interface type")}
	}
	if t.Options != nil && t.Options.OptionsType() != typ {
		if o, ok := t.Options.(*netconf.TunnelOptions); ok && isTunnel(typ) {
			o.Kind = typ
		} else {
			t.Options = nil
		}
	}
	t.Type = typ
	if t.Name == "" && !c.done() && t.keyword(c.peek()) == nil {
		t.Name = c.next()
	}
	return nil
}

func kwFamily(family string) keywordFunc {
	return func(t *InterfaceToken, c *cursor) error {
		t.Family = family
		if c.peek() != "address" {
			return nil
		}
		c.next()
		p, err := c.prefixValue("address")
		if err != nil {
			return err
		}
		if familyOf(p.Addr()) != family {
			return &FieldError{Keyword: "address", Value: p.String(), Err: fmt.Errorf("not an %s address", family)}
		}
		t.Address = p
		return nil
	}
}

func kwMTU(t *InterfaceToken, c *cursor) error {
	n, err := c.intValue("mtu", 68, 65535)
	if err != nil {
		return err
	}
	t.MTU = n
	return nil
}

func kwVRF(kw string) keywordFunc {
	return func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue(kw, 0, maxFIB)
		if err != nil {
			return err
		}
		t.VRF = intPtr(n)
		return nil
	}
}

func kwAdmin(up bool) keywordFunc {
	return func(t *InterfaceToken, c *cursor) error {
		v := up
		t.Up = &v
		return nil
	}
}

func kwDescription(t *InterfaceToken, c *cursor) error {
	d, err := c.value("description")
	if err != nil {
		return err
	}
	t.Description = d
	return nil
}

// kwVLAN handles "vlan [id <n>] [parent <if>]".
func kwVLAN(t *InterfaceToken, c *cursor) error {
	t.Type = netconf.TypeVLAN
	o := vlanOptions(t)
	for {
		switch c.peek() {
		case "id":
			c.next()
			n, err := c.intValue("vlan id", 1, 4094)
			if err != nil {
				return err
			}
			o.ID = n
		case "parent":
			c.next()
			p, err := c.value("vlan parent")
			if err != nil {
				return err
			}
			o.Parent = p
		default:
			return nil
		}
	}
}

// kwLagg handles "lagg [members <a,b,c>] [protocol <p>]".
func kwLagg(t *InterfaceToken, c *cursor) error {
	t.Type = netconf.TypeLagg
	for {
		var err error
		switch c.peek() {
		case "members":
			c.next()
			err = kwLaggMembers(t, c)
		case "protocol":
			c.next()
			err = kwLaggProtocol(t, c)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func familyOf(a netip.Addr) string {
	if a.Is4() || a.Is4In6() {
		return "inet"
	}
	return "inet6"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTunnel(typ netconf.InterfaceType) bool {
	return typ == netconf.TypeGRE || typ == netconf.TypeGIF || typ == netconf.TypeIPsec
}

// optionWords renders type-specific options as keywords accepted by the
// parser for that type.
func optionWords(o netconf.InterfaceOptions) []string {
	var w []string
	switch o := o.(type) {
	case *netconf.BridgeOptions:
		for _, m := range o.Members {
			w = append(w, "member", m)
		}
		if o.STP {
			w = append(w, "stp")
		}
		if o.Priority > 0 {
			w = append(w, "priority", strconv.Itoa(o.Priority))
		}
	case *netconf.LaggOptions:
		if len(o.Members) > 0 {
			w = append(w, "members", strings.Join(o.Members, ","))
		}
		if o.Protocol != "" {
			w = append(w, "protocol", o.Protocol)
		}
	case *netconf.VLANOptions:
		if o.ID > 0 {
			w = append(w, "vid", strconv.Itoa(o.ID))
		}
		if o.Parent != "" {
			w = append(w, "parent", o.Parent)
		}
		if o.PCP > 0 {
			w = append(w, "pcp", strconv.Itoa(o.PCP))
		}
	case *netconf.TunnelOptions:
		if o.Source.IsValid() {
			w = append(w, "source", o.Source.String())
		}
		if o.Destination.IsValid() {
			w = append(w, "destination", o.Destination.String())
		}
		if o.Key > 0 {
			w = append(w, "key", strconv.FormatUint(uint64(o.Key), 10))
		}
		if o.TunnelVRF > 0 {
			w = append(w, "tunnel-vrf", strconv.Itoa(o.TunnelVRF))
		}
	case *netconf.VXLANOptions:
		if o.VNI > 0 {
			w = append(w, "vni", strconv.Itoa(o.VNI))
		}
		if o.Local.IsValid() {
			w = append(w, "local", o.Local.String())
		}
		if o.Remote.IsValid() {
			w = append(w, "remote", o.Remote.String())
		}
		if o.Port > 0 {
			w = append(w, "port", strconv.Itoa(o.Port))
		}
	case *netconf.WLANOptions:
		if o.SSID != "" {
			w = append(w, "ssid", o.SSID)
		}
		if o.Channel > 0 {
			w = append(w, "channel", strconv.Itoa(o.Channel))
		}
		if o.Parent != "" {
			w = append(w, "parent", o.Parent)
		}
		if o.AuthMode != "" {
			w = append(w, "authmode", o.AuthMode)
		}
	case *netconf.WireGuardOptions:
		if o.ListenPort > 0 {
			w = append(w, "listen-port", strconv.Itoa(o.ListenPort))
		}
	case *netconf.CARPOptions:
		if o.VHID > 0 {
			w = append(w, "vhid", strconv.Itoa(o.VHID))
		}
		if o.AdvSkew > 0 {
			w = append(w, "advskew", strconv.Itoa(o.AdvSkew))
		}
	}
	return w
}

// InterfaceTypeNames returns the interface type names, sorted.
func InterfaceTypeNames() []string {
	out := make([]string, 0, len(netconf.InterfaceTypes))
	for _, t := range netconf.InterfaceTypes {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}
