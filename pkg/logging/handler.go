// Package logging forwards netcli's structured log records to a remote
// syslog collector so that configuration changes leave an audit trail.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Handler is an slog.Handler that passes every record to a base handler
// and copies it to a syslog client.
type Handler struct {
	base   slog.Handler
	client *Client
	attrs  []slog.Attr
	groups []string
}

// NewHandler wraps base. A nil client makes the handler a pass-through.
func NewHandler(base slog.Handler, client *Client) *Handler {
	return &Handler{base: base, client: client}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	err := h.base.Handle(ctx, r)
	if h.client == nil {
		return err
	}
	sev := severityOf(r.Level)
	if h.client.accepts(sev) {
		// Syslog is best effort; the base handler's error wins.
		_ = h.client.Send(sev, formatRecord(r, h.attrs, h.groups))
	}
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		base:   h.base.WithAttrs(attrs),
		client: h.client,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		base:   h.base.WithGroup(name),
		client: h.client,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

// Close closes the syslog client, if any.
func (h *Handler) Close() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}

func severityOf(level slog.Level) Severity {
	switch {
	case level >= slog.LevelError:
		return SeverityError
	case level >= slog.LevelWarn:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// formatRecord renders r as "msg key=value ...".
func formatRecord(r slog.Record, pre []slog.Attr, groups []string) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range pre {
		fmt.Fprintf(&b, " %s=%s", a.Key, quote(a.Value.String()))
	}
	prefix := ""
	if len(groups) > 0 {
		prefix = strings.Join(groups, ".") + "."
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s%s=%s", prefix, a.Key, quote(a.Value.String()))
		return true
	})
	return b.String()
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
