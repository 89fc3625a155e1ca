// Package command turns netcli input lines into typed commands.
//
// A line is split by Tokenize and handed to Parse, which recognizes the
// verb and delegates the rest of the line to a noun-specific sub-parser.
// The resulting Command carries the verb and one noun Token holding every
// modifier the sub-parser consumed.
package command

import (
	"sort"
	"strings"
)

// Verb is the operation class of a command.
type Verb int

const (
	VerbNone Verb = iota
	VerbShow
	VerbSet
	VerbDelete
)

func (v Verb) String() string {
	switch v {
	case VerbShow:
		return "show"
	case VerbSet:
		return "set"
	case VerbDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseVerb returns the verb spelled exactly s.
func ParseVerb(s string) (Verb, bool) {
	switch s {
	case "show":
		return VerbShow, true
	case "set":
		return VerbSet, true
	case "delete":
		return VerbDelete, true
	}
	return VerbNone, false
}

// Verbs lists the recognized verb keywords.
var Verbs = []string{"delete", "set", "show"}

// Kind discriminates noun tokens.
type Kind int

const (
	KindInterface Kind = iota + 1
	KindRoute
	KindVRF
	KindPolicy
	KindArp
	KindNdp
)

func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindRoute:
		return "route"
	case KindVRF:
		return "vrf"
	case KindPolicy:
		return "policy"
	case KindArp:
		return "arp"
	case KindNdp:
		return "ndp"
	default:
		return "unknown"
	}
}

// Token is one parsed noun with its modifiers. The set of implementations
// is closed to this package.
type Token interface {
	Kind() Kind
	// Complete returns the keywords accepted after this noun that start
	// with partial, sorted.
	Complete(partial string) []string
	// Clone returns a deep copy of the token.
	Clone() Token
	// String renders the noun and its modifiers in CLI syntax.
	String() string

	sealed()
}

// Command is one parsed input line.
type Command struct {
	Verb   Verb
	Object Token // nil for a verb-only command
}

// Validate reports whether the command has a verb. Grammar checks belong
// to the sub-parsers and handlers.
func (c *Command) Validate() bool {
	return c != nil && c.Verb != VerbNone
}

func (c *Command) String() string {
	if c.Object == nil {
		return c.Verb.String()
	}
	return c.Verb.String() + " " + c.Object.String()
}

// Nouns maps every accepted noun spelling to its kind.
var Nouns = map[string]Kind{
	"interfaces": KindInterface,
	"interface":  KindInterface,
	"route":      KindRoute,
	"routes":     KindRoute,
	"vrf":        KindVRF,
	"policy":     KindPolicy,
	"arp":        KindArp,
	"ndp":        KindNdp,
}

// completeWords returns the sorted entries of words starting with partial.
func completeWords(words []string, partial string) []string {
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, partial) {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

// words joins non-empty CLI fragments with single spaces.
func words(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}
