package logging

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// Severity is an RFC 3164 severity; smaller values are more urgent.
type Severity int

const (
	SeverityError   Severity = 3
	SeverityWarning Severity = 4
	SeverityInfo    Severity = 6
)

var severityNames = map[string]Severity{
	"error":   SeverityError,
	"warning": SeverityWarning,
	"info":    SeverityInfo,
}

// ParseSeverity looks up one of "error", "warning" or "info".
func ParseSeverity(name string) (Severity, bool) {
	s, ok := severityNames[name]
	return s, ok
}

func (s Severity) String() string {
	for name, v := range severityNames {
		if v == s {
			return name
		}
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// facilityLocal7 is where the audit trail of CLI sessions goes.
const facilityLocal7 = 23

const defaultSyslogPort = "514"

// Client writes audit records to a syslog collector. Records less urgent
// than Threshold are dropped; a zero Threshold keeps everything.
type Client struct {
	out       io.WriteCloser
	host      string
	Threshold Severity
}

// Dial opens a UDP client for addr, given as "host" or "host:port".
func Dial(addr string, threshold Severity) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultSyslogPort)
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial syslog %s: %w", addr, err)
	}
	c := newClient(conn)
	c.Threshold = threshold
	return c, nil
}

func newClient(out io.WriteCloser) *Client {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "netcli"
	}
	return &Client{out: out, host: host}
}

func (c *Client) accepts(s Severity) bool {
	return c.Threshold == 0 || s <= c.Threshold
}

// Send emits msg as one datagram tagged "netcli".
func (c *Client) Send(s Severity, msg string) error {
	_, err := io.WriteString(c.out, frame(s, time.Now(), c.host, msg))
	return err
}

// frame renders "<PRI>Mmm dd hh:mm:ss host netcli: msg".
func frame(s Severity, at time.Time, host, msg string) string {
	pri := facilityLocal7*8 + int(s)
	return fmt.Sprintf("<%d>%s %s netcli: %s", pri, at.Format(time.Stamp), host, msg)
}

func (c *Client) Close() error {
	return c.out.Close()
}
