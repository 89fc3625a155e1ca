package cli

import (
	"fmt"

	"github.com/psaab/netcli/pkg/cmdtree"
)

// completer feeds readline tab completion from the command tree.
type completer struct {
	cli *CLI
}

func (cp *completer) Do(line []rune, pos int) ([][]rune, int) {
	words, partial := cmdtree.SplitLine(string(line[:pos]))
	candidates := cmdtree.Complete(cp.cli.mgr, words, partial)
	if len(candidates) == 0 {
		return nil, 0
	}

	if len(candidates) == 1 {
		suffix := candidates[0].Name[len(partial):]
		return [][]rune{[]rune(suffix + " ")}, len(partial)
	}

	// Multiple matches: show descriptions above prompt.
	cmdtree.WriteHelp(cp.cli.helpOut(), candidates)

	common := cmdtree.CommonPrefix(cmdtree.Names(candidates))
	suffix := common[len(partial):]
	if suffix == "" {
		return nil, 0
	}
	return [][]rune{[]rune(suffix)}, len(partial)
}

// onKey shows inline help when '?' is typed, without inserting it.
func (c *CLI) onKey(line []rune, pos int, key rune) ([]rune, int, bool) {
	if key != '?' || pos < 1 {
		return line, pos, false
	}
	// Strip the '?' that readline already inserted.
	cleanLine := make([]rune, 0, len(line)-1)
	cleanLine = append(cleanLine, line[:pos-1]...)
	cleanLine = append(cleanLine, line[pos:]...)

	words, partial := cmdtree.SplitLine(string(cleanLine[:pos-1]))
	candidates := cmdtree.Complete(c.mgr, words, partial)
	out := c.helpOut()
	if len(candidates) == 0 {
		fmt.Fprintln(out, "  (no help available)")
		return cleanLine, pos - 1, true
	}
	cmdtree.WriteHelp(out, candidates)
	return cleanLine, pos - 1, true
}
