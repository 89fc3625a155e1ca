package command

import (
	"fmt"
	"net/netip"
	"slices"
	"strconv"
)

// VRFToken is the "vrf" noun. A VRF is a FIB table number with an
// optional label.
type VRFToken struct {
	Table     *int
	Name      string
	Interface string
}

func (*VRFToken) Kind() Kind { return KindVRF }
func (*VRFToken) sealed()    {}

func (t *VRFToken) Clone() Token {
	c := *t
	c.Table = cloneIntPtr(t.Table)
	return &c
}

var vrfKeywords = []string{"table", "name", "interface"}

func (t *VRFToken) Complete(partial string) []string {
	return completeWords(vrfKeywords, partial)
}

func (t *VRFToken) String() string {
	parts := []string{"vrf"}
	if t.Table != nil {
		parts = append(parts, strconv.Itoa(*t.Table))
	}
	if t.Name != "" {
		parts = append(parts, "name", t.Name)
	}
	if t.Interface != "" {
		parts = append(parts, "interface", t.Interface)
	}
	return words(parts...)
}

// parseVRF handles "vrf [<table>] [table <n>] [name <label>] [interface <if>]".
func parseVRF(toks []string, start int) (Token, int, error) {
	t := &VRFToken{}
	c := &cursor{toks: toks, pos: start}

	if !c.done() && !slices.Contains(vrfKeywords, c.peek()) {
		n, err := c.intValue("vrf", 0, maxFIB)
		if err != nil {
			return nil, 0, err
		}
		t.Table = intPtr(n)
	}

	for !c.done() {
		var err error
		switch c.peek() {
		case "table":
			c.next()
			var n int
			n, err = c.intValue("table", 0, maxFIB)
			t.Table = intPtr(n)
		case "name":
			c.next()
			t.Name, err = c.value("name")
		case "interface":
			c.next()
			t.Interface, err = c.value("interface")
		default:
			return t, c.pos, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return t, c.pos, nil
}

// PolicyToken is the "policy" noun. It parses, but no handler acts on it.
type PolicyToken struct {
	Name   string
	From   netip.Prefix
	To     netip.Prefix
	Action string
	VRF    *int
}

func (*PolicyToken) Kind() Kind { return KindPolicy }
func (*PolicyToken) sealed()    {}

func (t *PolicyToken) Clone() Token {
	c := *t
	c.VRF = cloneIntPtr(t.VRF)
	return &c
}

var policyKeywords = []string{"from", "to", "action", "vrf"}

func (t *PolicyToken) Complete(partial string) []string {
	return completeWords(policyKeywords, partial)
}

func (t *PolicyToken) String() string {
	parts := []string{"policy", t.Name}
	if t.From.IsValid() {
		parts = append(parts, "from", t.From.String())
	}
	if t.To.IsValid() {
		parts = append(parts, "to", t.To.String())
	}
	if t.Action != "" {
		parts = append(parts, "action", t.Action)
	}
	if t.VRF != nil {
		parts = append(parts, "vrf", strconv.Itoa(*t.VRF))
	}
	return words(parts...)
}

// parsePolicy handles "policy [<name>] [from <prefix>] [to <prefix>]
// [action permit|deny] [vrf <n>]".
func parsePolicy(toks []string, start int) (Token, int, error) {
	t := &PolicyToken{}
	c := &cursor{toks: toks, pos: start}

	if !c.done() && !slices.Contains(policyKeywords, c.peek()) {
		t.Name = c.next()
	}

	for !c.done() {
		var err error
		switch c.peek() {
		case "from":
			c.next()
			t.From, err = c.prefixValue("from")
		case "to":
			c.next()
			t.To, err = c.prefixValue("to")
		case "action":
			c.next()
			t.Action, err = c.value("action")
			if err == nil && t.Action != "permit" && t.Action != "deny" {
				err = &FieldError{Keyword: "action", Value: t.Action, Err: fmt.Errorf("expected permit or deny")}
			}
		case "vrf":
			c.next()
			var n int
			n, err = c.intValue("vrf", 0, maxFIB)
			t.VRF = intPtr(n)
		default:
			return t, c.pos, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return t, c.pos, nil
}
