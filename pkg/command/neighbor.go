package command

import (
	"fmt"
	"net"
	"net/netip"
	"slices"
)

// NeighborFields are the modifiers shared by the arp and ndp nouns.
type NeighborFields struct {
	IP        netip.Addr
	MAC       net.HardwareAddr
	Interface string
	Temporary bool
}

func (f NeighborFields) clone() NeighborFields {
	c := f
	if f.MAC != nil {
		c.MAC = append(net.HardwareAddr(nil), f.MAC...)
	}
	return c
}

func (f NeighborFields) render(noun string) string {
	parts := []string{noun}
	if f.IP.IsValid() {
		parts = append(parts, f.IP.String())
	}
	if f.MAC != nil {
		parts = append(parts, "mac", f.MAC.String())
	}
	if f.Interface != "" {
		parts = append(parts, "interface", f.Interface)
	}
	if f.Temporary {
		parts = append(parts, "temp")
	}
	return words(parts...)
}

var neighborKeywords = []string{"mac", "interface", "permanent", "temp"}

// ArpToken is the "arp" noun: an IPv4 neighbor.
type ArpToken struct {
	NeighborFields
}

func (*ArpToken) Kind() Kind { return KindArp }
func (*ArpToken) sealed()    {}

func (t *ArpToken) Clone() Token { return &ArpToken{t.clone()} }

func (t *ArpToken) Complete(partial string) []string {
	return completeWords(neighborKeywords, partial)
}

func (t *ArpToken) String() string { return t.render("arp") }

// NdpToken is the "ndp" noun: an IPv6 neighbor.
type NdpToken struct {
	NeighborFields
}

func (*NdpToken) Kind() Kind { return KindNdp }
func (*NdpToken) sealed()    {}

func (t *NdpToken) Clone() Token { return &NdpToken{t.clone()} }

func (t *NdpToken) Complete(partial string) []string {
	return completeWords(neighborKeywords, partial)
}

func (t *NdpToken) String() string { return t.render("ndp") }

func parseArp(toks []string, start int) (Token, int, error) {
	f, end, err := parseNeighbor("arp", toks, start, true)
	if err != nil {
		return nil, 0, err
	}
	return &ArpToken{f}, end, nil
}

func parseNdp(toks []string, start int) (Token, int, error) {
	f, end, err := parseNeighbor("ndp", toks, start, false)
	if err != nil {
		return nil, 0, err
	}
	return &NdpToken{f}, end, nil
}

// parseNeighbor handles "<noun> [<address>] [mac <mac>] [interface <if>]
// [permanent|temp]".
func parseNeighbor(noun string, toks []string, start int, v4 bool) (NeighborFields, int, error) {
	var f NeighborFields
	c := &cursor{toks: toks, pos: start}

	if !c.done() && !slices.Contains(neighborKeywords, c.peek()) {
		a, err := c.addrValue(noun)
		if err != nil {
			return f, 0, err
		}
		if a.Is4() != v4 {
			want := "IPv6"
			if v4 {
				want = "IPv4"
			}
			return f, 0, &FieldError{Keyword: noun, Value: a.String(), Err: fmt.Errorf("not an %s address", want)}
		}
		f.IP = a
	}

	for !c.done() {
		var err error
		switch c.peek() {
		case "mac":
			c.next()
			f.MAC, err = c.macValue("mac")
		case "interface":
			c.next()
			f.Interface, err = c.value("interface")
		case "permanent":
			c.next()
			f.Temporary = false
		case "temp":
			c.next()
			f.Temporary = true
		default:
			return f, c.pos, nil
		}
		if err != nil {
			return f, 0, err
		}
	}
	return f, c.pos, nil
}
