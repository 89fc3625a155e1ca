package command

import (
	"net/netip"
	"slices"
	"strconv"
)

// RouteToken is the "route" noun.
type RouteToken struct {
	Prefix    netip.Prefix
	NextHop   netip.Addr
	Gateway   netip.Addr
	Interface string
	VRF       *int
	Blackhole bool
	Reject    bool
}

func (*RouteToken) Kind() Kind { return KindRoute }
func (*RouteToken) sealed()    {}

func (t *RouteToken) Clone() Token {
	c := *t
	c.VRF = cloneIntPtr(t.VRF)
	return &c
}

var routeKeywords = []string{
	"next-hop", "nexthop", "gw", "dest", "vrf", "interface", "blackhole", "reject",
}

func (t *RouteToken) Complete(partial string) []string {
	return completeWords(routeKeywords, partial)
}

// Via returns the address traffic is forwarded to: the next-hop when one
// was given, otherwise the gateway.
func (t *RouteToken) Via() netip.Addr {
	if t.NextHop.IsValid() {
		return t.NextHop
	}
	return t.Gateway
}

// Table returns the FIB the route belongs to, 0 when none was given.
func (t *RouteToken) Table() int {
	if t.VRF == nil {
		return 0
	}
	return *t.VRF
}

func (t *RouteToken) String() string {
	parts := []string{"route"}
	if t.Prefix.IsValid() {
		parts = append(parts, t.Prefix.String())
	}
	if t.NextHop.IsValid() {
		parts = append(parts, "next-hop", t.NextHop.String())
	}
	if t.Gateway.IsValid() {
		parts = append(parts, "gw", t.Gateway.String())
	}
	if t.Interface != "" {
		parts = append(parts, "interface", t.Interface)
	}
	if t.VRF != nil {
		parts = append(parts, "vrf", strconv.Itoa(*t.VRF))
	}
	if t.Blackhole {
		parts = append(parts, "blackhole")
	}
	if t.Reject {
		parts = append(parts, "reject")
	}
	return words(parts...)
}

// parseRoute handles "route [<prefix>] [keywords...]".
func parseRoute(toks []string, start int) (Token, int, error) {
	t := &RouteToken{}
	c := &cursor{toks: toks, pos: start}

	if !c.done() && !slices.Contains(routeKeywords, c.peek()) {
		p, err := c.prefixValue("route")
		if err != nil {
			return nil, 0, err
		}
		t.Prefix = p.Masked()
	}

	for !c.done() {
		var err error
		switch c.peek() {
		case "next-hop", "nexthop":
			kw := c.next()
			switch c.peek() {
			case "reject":
				c.next()
				t.Reject = true
			case "blackhole":
				c.next()
				t.Blackhole = true
			default:
				t.NextHop, err = c.addrValue(kw)
			}
		case "gw":
			c.next()
			t.Gateway, err = c.addrValue("gw")
		case "dest":
			c.next()
			var p netip.Prefix
			p, err = c.prefixValue("dest")
			t.Prefix = p.Masked()
		case "vrf":
			c.next()
			var n int
			n, err = c.intValue("vrf", 0, maxFIB)
			t.VRF = intPtr(n)
		case "interface":
			c.next()
			t.Interface, err = c.value("interface")
		case "blackhole":
			c.next()
			t.Blackhole = true
		case "reject":
			c.next()
			t.Reject = true
		default:
			return t, c.pos, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return t, c.pos, nil
}
