// Package cli implements the netcli interactive shell and one-shot
// command execution.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/chzyer/readline"

	"github.com/psaab/netcli/pkg/cmdtree"
	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/dispatch"
	"github.com/psaab/netcli/pkg/metrics"
	"github.com/psaab/netcli/pkg/netconf"
)

// ErrExit is returned by Execute for the exit and quit built-ins.
var ErrExit = errors.New("exit")

// InvalidCommandError wraps a parse failure.
type InvalidCommandError struct {
	Err error
}

func (e *InvalidCommandError) Error() string {
	return "Invalid command: " + e.Err.Error()
}

func (e *InvalidCommandError) Unwrap() error { return e.Err }

// Options configures a CLI.
type Options struct {
	Out         io.Writer // defaults to os.Stdout
	Err         io.Writer // defaults to os.Stderr
	HistoryFile string
	MaxWidth    int
	Color       bool
	// Metrics, when set, counts every parsed command.
	Metrics *metrics.Metrics
}

// CLI is the interactive command-line interface.
type CLI struct {
	rl          *readline.Instance
	mgr         netconf.Manager
	disp        *dispatch.Dispatcher
	metrics     *metrics.Metrics
	out         io.Writer
	errOut      io.Writer
	historyFile string
	hostname    string
	username    string
}

// New creates a CLI operating on mgr.
func New(mgr netconf.Manager, opts Options) *CLI {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "netcli"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = "root"
	}
	return &CLI{
		mgr: mgr,
		disp: dispatch.New(dispatch.Options{
			Out:      opts.Out,
			MaxWidth: opts.MaxWidth,
			Color:    opts.Color,
		}),
		metrics:     opts.Metrics,
		out:         opts.Out,
		errOut:      opts.Err,
		historyFile: opts.HistoryFile,
		hostname:    hostname,
		username:    username,
	}
}

// Execute parses and runs one input line. A panic anywhere below is
// returned as an error.
func (c *CLI) Execute(line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("command panic", "line", line, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	toks := command.Tokenize(line)
	if len(toks) == 0 {
		return nil
	}
	switch toks[0] {
	case "exit", "quit":
		return ErrExit
	case "help", "?":
		c.showHelp(toks[1:])
		return nil
	}

	cmd, err := command.Parse(toks)
	if err != nil {
		return &InvalidCommandError{Err: err}
	}
	err = c.disp.Dispatch(cmd, c.mgr)
	if c.metrics != nil {
		c.metrics.Observe(cmd, err)
	}
	if err != nil {
		return err
	}
	if cmd.Verb != command.VerbShow {
		slog.Info("configuration changed", "user", c.username, "command", cmd.String())
	}
	return nil
}

// Report writes err to the error stream.
func (c *CLI) Report(err error) {
	var invalid *InvalidCommandError
	if errors.As(err, &invalid) {
		fmt.Fprintln(c.errOut, err)
		return
	}
	fmt.Fprintf(c.errOut, "error: %v\n", err)
}

// Run starts the interactive CLI loop.
func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		HistoryFile:     c.historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &completer{cli: c},
		Listener:        readline.FuncListener(c.onKey),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer c.rl.Close()

	fmt.Fprintln(c.out, "netcli - network configuration shell")
	fmt.Fprintln(c.out, "Type '?' for help")
	fmt.Fprintln(c.out)

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.Execute(line); err != nil {
			if err == ErrExit {
				return nil
			}
			c.Report(err)
		}
	}
	return nil
}

func (c *CLI) prompt() string {
	return fmt.Sprintf("%s@%s> ", c.username, c.hostname)
}

// helpOut is where completion listings go: readline's stdout while the
// prompt is active, the plain output stream otherwise.
func (c *CLI) helpOut() io.Writer {
	if c.rl != nil {
		return c.rl.Stdout()
	}
	return c.out
}

func (c *CLI) showHelp(path []string) {
	if len(path) == 0 {
		fmt.Fprintln(c.out, "Commands:")
		fmt.Fprintln(c.out, "  show <object> [filters]      Display interfaces, routes, VRFs, ARP or NDP entries")
		fmt.Fprintln(c.out, "  set <object> <attributes>    Create or modify an object")
		fmt.Fprintln(c.out, "  delete <object> [attributes] Remove an object or one of its attributes")
		fmt.Fprintln(c.out, "  help [command]               Show this help or the words accepted after command")
		fmt.Fprintln(c.out, "  exit | quit                  Leave the CLI")
		fmt.Fprintln(c.out)
	}
	candidates := cmdtree.Complete(c.mgr, path, "")
	if len(candidates) == 0 {
		fmt.Fprintln(c.out, "  (no help available)")
		return
	}
	cmdtree.WriteHelp(c.out, candidates)
}
