// Package cmdtree builds tab completion and ? help for the netcli prompt.
//
// The first two words of a line (verb and noun) are walked through a
// static tree. Everything after the noun is completed from the keyword
// tables of the command package, and keyword values that name live
// objects are filled in from the configuration manager.
package cmdtree

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
)

// Node defines a completion tree node with description and children.
// Keyword values are resolved dynamically by values.
type Node struct {
	Desc     string
	Children map[string]*Node
}

// Candidate holds a command name and its description for display.
type Candidate struct {
	Name string
	Desc string
}

func nouns(verb string) map[string]*Node {
	return map[string]*Node{
		"interfaces": {Desc: verb + " network interfaces"},
		"route":      {Desc: verb + " routing table entries"},
		"vrf":        {Desc: verb + " VRF (FIB) tables"},
		"arp":        {Desc: verb + " IPv4 neighbor entries"},
		"ndp":        {Desc: verb + " IPv6 neighbor entries"},
		"policy":     {Desc: verb + " routing policies"},
	}
}

// Tree is the top level of the netcli command tree.
var Tree = map[string]*Node{
	"show":   {Desc: "Show information", Children: nouns("Show")},
	"set":    {Desc: "Configure an object", Children: nouns("Configure")},
	"delete": {Desc: "Remove an object or attribute", Children: nouns("Remove")},
	"help":   {Desc: "Show command help"},
	"exit":   {Desc: "Exit the CLI"},
	"quit":   {Desc: "Exit the CLI"},
}

// keywordDesc describes the keywords offered after a noun.
var keywordDesc = map[string]string{
	"name":        "Interface name",
	"group":       "Interface group",
	"type":        "Interface type",
	"inet":        "IPv4 addressing",
	"inet6":       "IPv6 addressing",
	"address":     "Address with prefix length",
	"mtu":         "Maximum transmission unit",
	"fib":         "FIB table number",
	"vrf":         "VRF table number",
	"vlan":        "VLAN settings",
	"lagg":        "Link aggregation settings",
	"up":          "Administratively enable",
	"down":        "Administratively disable",
	"description": "Interface description",
	"member":      "Bridge member interface",
	"members":     "Comma-separated member interfaces",
	"stp":         "Enable spanning tree",
	"priority":    "Bridge priority",
	"vid":         "VLAN ID",
	"id":          "VLAN ID",
	"parent":      "Parent interface",
	"pcp":         "VLAN priority code point",
	"laggport":    "Lagg member port",
	"protocol":    "Lagg protocol",
	"source":      "Tunnel source address",
	"destination": "Tunnel destination address",
	"key":         "Tunnel key",
	"tunnel-vrf":  "FIB of the tunnel transport",
	"vni":         "VXLAN network identifier",
	"local":       "VXLAN local address",
	"remote":      "VXLAN remote address",
	"port":        "VXLAN UDP port",
	"ssid":        "Wireless network name",
	"channel":     "Wireless channel",
	"authmode":    "Wireless authentication mode",
	"listen-port": "WireGuard listen port",
	"vhid":        "CARP virtual host ID",
	"advskew":     "CARP advertisement skew",
	"next-hop":    "Next-hop address, reject or blackhole",
	"nexthop":     "Next-hop address, reject or blackhole",
	"gw":          "Gateway address",
	"dest":        "Destination prefix",
	"interface":   "Interface name",
	"blackhole":   "Silently discard matching packets",
	"reject":      "Reject matching packets",
	"table":       "FIB table number",
	"mac":         "Link-layer address",
	"permanent":   "Entry never expires",
	"temp":        "Entry expires",
	"from":        "Source prefix",
	"to":          "Destination prefix",
	"action":      "permit or deny",
}

// values returns the dynamic values offered after keyword kw, or nil when
// kw takes no completable value.
func values(kw string, mgr netconf.Manager) []string {
	switch kw {
	case "name", "interface", "parent", "member", "laggport":
		return interfaceNames(mgr)
	case "type":
		return command.InterfaceTypeNames()
	case "group":
		return groupNames(mgr)
	case "fib", "vrf", "table", "tunnel-vrf":
		return vrfTables(mgr)
	case "protocol":
		return command.LaggProtocols()
	case "action":
		return []string{"deny", "permit"}
	}
	return nil
}

func interfaceNames(mgr netconf.Manager) []string {
	if mgr == nil {
		return nil
	}
	ifcs, err := mgr.GetInterfaces()
	if err != nil {
		slog.Debug("completion: list interfaces", "err", err)
		return nil
	}
	names := make([]string, 0, len(ifcs))
	for _, ifc := range ifcs {
		names = append(names, ifc.Name)
	}
	return names
}

func groupNames(mgr netconf.Manager) []string {
	if mgr == nil {
		return nil
	}
	ifcs, err := mgr.GetInterfaces()
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	for _, ifc := range ifcs {
		for _, g := range ifc.Groups {
			if !seen[g] {
				seen[g] = true
				names = append(names, g)
			}
		}
	}
	return names
}

func vrfTables(mgr netconf.Manager) []string {
	if mgr == nil {
		return nil
	}
	vrfs, err := mgr.GetVRFs()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(vrfs))
	for _, v := range vrfs {
		out = append(out, strconv.Itoa(v.Table))
	}
	return out
}

// Complete returns the candidates for partial given the complete words
// already typed before it. mgr may be nil, in which case no dynamic
// values are offered.
func Complete(mgr netconf.Manager, words []string, partial string) []Candidate {
	if len(words) < 2 {
		current := Tree
		if len(words) == 1 {
			node, ok := Tree[words[0]]
			if !ok || node.Children == nil {
				return nil
			}
			current = node.Children
		}
		var candidates []Candidate
		for name, node := range current {
			if strings.HasPrefix(name, partial) {
				candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
			}
		}
		return sortCandidates(candidates)
	}

	if _, ok := command.ParseVerb(words[0]); !ok {
		return nil
	}
	kind, ok := command.Nouns[words[1]]
	if !ok {
		return nil
	}

	if len(words) > 2 {
		last := words[len(words)-1]
		if vals := values(last, mgr); vals != nil {
			return fromNames(vals, partial, "(configured)")
		}
	}

	cmd, err := command.Parse(words)
	if err != nil || cmd.Object == nil {
		return nil
	}
	var candidates []Candidate
	for _, kw := range cmd.Object.Complete(partial) {
		candidates = append(candidates, Candidate{Name: kw, Desc: keywordDesc[kw]})
	}
	// "interfaces <type> [<name>]" is accepted directly after the noun.
	if kind == command.KindInterface && len(words) == 2 {
		for _, c := range fromNames(command.InterfaceTypeNames(), partial, "Interface type") {
			if !slices.ContainsFunc(candidates, func(k Candidate) bool { return k.Name == c.Name }) {
				candidates = append(candidates, c)
			}
		}
	}
	return sortCandidates(candidates)
}

func fromNames(names []string, partial, desc string) []Candidate {
	var candidates []Candidate
	for _, n := range names {
		if strings.HasPrefix(n, partial) {
			candidates = append(candidates, Candidate{Name: n, Desc: desc})
		}
	}
	return sortCandidates(candidates)
}

func sortCandidates(c []Candidate) []Candidate {
	sort.Slice(c, func(i, j int) bool { return c[i].Name < c[j].Name })
	return c
}

// Names returns the names of candidates.
func Names(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}

// WriteHelp prints aligned completion candidates to w.
// The entire output is built as a single string and written in one call
// so that readline's wrapWriter triggers only one Refresh cycle.
func WriteHelp(w io.Writer, candidates []Candidate) {
	maxWidth := 20
	for _, c := range candidates {
		if len(c.Name)+2 > maxWidth {
			maxWidth = len(c.Name) + 2
		}
	}
	var sb strings.Builder
	sb.WriteString("Possible completions:\n")
	for _, c := range candidates {
		if c.Desc != "" {
			fmt.Fprintf(&sb, "  %-*s %s\n", maxWidth, c.Name, c.Desc)
		} else {
			fmt.Fprintf(&sb, "  %s\n", c.Name)
		}
	}
	io.WriteString(w, sb.String())
}

// CommonPrefix returns the longest shared prefix among the given strings.
func CommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, s := range items[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// SplitLine splits the text before the cursor into complete words and the
// partial word being typed.
func SplitLine(text string) (words []string, partial string) {
	words = strings.Fields(text)
	if len(words) > 0 && !strings.HasSuffix(text, " ") && !strings.HasSuffix(text, "\t") {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}
	return words, partial
}
