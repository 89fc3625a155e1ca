package command

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// Tokenize splits line on runs of whitespace. There is no quoting,
// escaping or comment syntax.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// subParser consumes the tokens of one noun starting at start and returns
// the noun token and the index just past the consumed span.
type subParser func(toks []string, start int) (Token, int, error)

var subParsers = map[Kind]subParser{
	KindInterface: parseInterface,
	KindRoute:     parseRoute,
	KindVRF:       parseVRF,
	KindPolicy:    parsePolicy,
	KindArp:       parseArp,
	KindNdp:       parseNdp,
}

// Parse converts the tokens of one line into a Command.
//
// An unknown noun yields a verb-only command; dispatch reports it. A
// keyword the noun does not know ends the noun's span and the remaining
// tokens are ignored.
func Parse(toks []string) (*Command, error) {
	if len(toks) == 0 {
		return nil, ErrEmpty
	}
	verb, ok := ParseVerb(toks[0])
	if !ok {
		return nil, &UnknownVerbError{Word: toks[0]}
	}
	cmd := &Command{Verb: verb}
	if len(toks) == 1 {
		return cmd, nil
	}
	kind, ok := Nouns[toks[1]]
	if !ok {
		slog.Debug("unknown noun", "verb", verb, "noun", toks[1])
		return cmd, nil
	}
	obj, end, err := subParsers[kind](toks, 2)
	if err != nil {
		return nil, err
	}
	if end < len(toks) {
		slog.Debug("ignoring unconsumed tokens", "noun", kind, "rest", toks[end:])
	}
	cmd.Object = obj
	return cmd, nil
}

// ParseLine tokenizes and parses line.
func ParseLine(line string) (*Command, error) {
	return Parse(Tokenize(line))
}

// cursor walks a token slice on behalf of a sub-parser.
type cursor struct {
	toks []string
	pos  int
}

func (c *cursor) done() bool { return c.pos >= len(c.toks) }

func (c *cursor) peek() string {
	if c.done() {
		return ""
	}
	return c.toks[c.pos]
}

func (c *cursor) next() string {
	s := c.peek()
	c.pos++
	return s
}

// value consumes the argument of kw.
func (c *cursor) value(kw string) (string, error) {
	if c.done() {
		return "", &FieldError{Keyword: kw, Err: ErrMissingValue}
	}
	return c.next(), nil
}

func (c *cursor) intValue(kw string, min, max int) (int, error) {
	s, err := c.value(kw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &FieldError{Keyword: kw, Value: s, Err: fmt.Errorf("not a number")}
	}
	if n < min || n > max {
		return 0, &FieldError{Keyword: kw, Value: s, Err: fmt.Errorf("out of range %d-%d", min, max)}
	}
	return n, nil
}

func (c *cursor) addrValue(kw string) (netip.Addr, error) {
	s, err := c.value(kw)
	if err != nil {
		return netip.Addr{}, err
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, &FieldError{Keyword: kw, Value: s, Err: fmt.Errorf("invalid address")}
	}
	return a, nil
}

// prefixValue consumes an address with optional length. A bare address
// becomes a host prefix; host bits are preserved.
func (c *cursor) prefixValue(kw string) (netip.Prefix, error) {
	s, err := c.value(kw)
	if err != nil {
		return netip.Prefix{}, err
	}
	p, err := parsePrefix(s)
	if err != nil {
		return netip.Prefix{}, &FieldError{Keyword: kw, Value: s, Err: err}
	}
	return p, nil
}

func (c *cursor) macValue(kw string) (net.HardwareAddr, error) {
	s, err := c.value(kw)
	if err != nil {
		return nil, err
	}
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, &FieldError{Keyword: kw, Value: s, Err: fmt.Errorf("invalid MAC address")}
	}
	return mac, nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid prefix")
		}
		return p, nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid prefix")
	}
	return netip.PrefixFrom(a, a.BitLen()), nil
}

func intPtr(n int) *int { return &n }

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}

// maxFIB bounds FIB/VRF table numbers.
const maxFIB = 1<<16 - 1
