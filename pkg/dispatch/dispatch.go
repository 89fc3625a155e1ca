// Package dispatch routes parsed commands to the handler registered for
// their (verb, noun) pair and implements the default handlers.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sort"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
	"github.com/psaab/netcli/pkg/table"
)

var (
	// ErrUnsupported is returned for a command whose verb is not one of
	// show, set or delete.
	ErrUnsupported = errors.New("unknown or unsupported command")
	// ErrMissingObject is returned for a verb without a noun.
	ErrMissingObject = errors.New("missing object")
	// ErrUnknownObject is returned when no handler is registered for the
	// verb and noun.
	ErrUnknownObject = errors.New("unknown object type")
)

// Key identifies a handler.
type Key struct {
	Verb command.Verb
	Kind command.Kind
}

func (k Key) String() string {
	return k.Verb.String() + " " + k.Kind.String()
}

type handler func(tok command.Token, mgr netconf.Manager) error

// Options configures a Dispatcher.
type Options struct {
	// Out receives handler output. Defaults to os.Stdout.
	Out io.Writer
	// MaxWidth bounds rendered tables. Defaults to table.DefaultMaxWidth.
	MaxWidth int
	// Color enables ANSI styling of state cells.
	Color bool
}

// Dispatcher maps (verb, noun kind) pairs to handlers. The registry is
// filled once by New and only read afterwards.
type Dispatcher struct {
	handlers map[Key]handler
	out      io.Writer
	maxWidth int
	color    bool
}

// New returns a Dispatcher with the default handlers registered.
func New(opts Options) *Dispatcher {
	d := newDispatcher(opts)
	d.registerDefaults()
	return d
}

func newDispatcher(opts Options) *Dispatcher {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = table.DefaultMaxWidth
	}
	return &Dispatcher{
		handlers: make(map[Key]handler),
		out:      opts.Out,
		maxWidth: opts.MaxWidth,
		color:    opts.Color,
	}
}

// Register installs fn for verb and the noun type T, replacing any
// handler already registered for the pair. Dispatch only calls fn with
// a T.
func Register[T command.Token](d *Dispatcher, verb command.Verb, fn func(T, netconf.Manager) error) {
	var zero T
	key := Key{Verb: verb, Kind: zero.Kind()}
	if _, ok := d.handlers[key]; ok {
		slog.Debug("replacing handler", "key", key)
	}
	d.handlers[key] = func(tok command.Token, mgr netconf.Manager) error {
		t, ok := tok.(T)
		if !ok {
			return fmt.Errorf("%s: handler got %T", key, tok)
		}
		return fn(t, mgr)
	}
}

func (d *Dispatcher) registerDefaults() {
	Register(d, command.VerbShow, d.showInterface)
	Register(d, command.VerbSet, d.setInterface)
	Register(d, command.VerbDelete, d.deleteInterface)

	Register(d, command.VerbShow, d.showRoute)
	Register(d, command.VerbSet, d.setRoute)
	Register(d, command.VerbDelete, d.deleteRoute)

	Register(d, command.VerbShow, d.showVRF)
	Register(d, command.VerbSet, d.setVRF)
	Register(d, command.VerbDelete, d.deleteVRF)

	Register(d, command.VerbShow, d.showArp)
	Register(d, command.VerbSet, d.setArp)
	Register(d, command.VerbDelete, d.deleteArp)

	Register(d, command.VerbShow, d.showNdp)
	Register(d, command.VerbSet, d.setNdp)
	Register(d, command.VerbDelete, d.deleteNdp)
}

// Keys returns the registered (verb, noun) pairs in a stable order.
func (d *Dispatcher) Keys() []Key {
	keys := make([]Key, 0, len(d.handlers))
	for k := range d.handlers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Verb < keys[j].Verb
	})
	return keys
}

// Dispatch runs the handler for cmd. A panic inside the handler is
// returned as an error.
func (d *Dispatcher) Dispatch(cmd *command.Command, mgr netconf.Manager) (err error) {
	if cmd == nil {
		return nil
	}
	switch cmd.Verb {
	case command.VerbShow, command.VerbSet, command.VerbDelete:
	default:
		return ErrUnsupported
	}
	if cmd.Object == nil {
		return fmt.Errorf("%s: %w", cmd.Verb, ErrMissingObject)
	}
	key := Key{Verb: cmd.Verb, Kind: cmd.Object.Kind()}
	h, ok := d.handlers[key]
	if !ok {
		return fmt.Errorf("%s: %w", cmd.Verb, ErrUnknownObject)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panic", "key", key, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%s: internal error: %v", key, r)
		}
	}()
	slog.Debug("dispatch", "key", key, "object", cmd.Object.String())
	return h(cmd.Object, mgr)
}

func (d *Dispatcher) render(t *table.Formatter) {
	fmt.Fprint(d.out, t.Format(d.maxWidth))
}
