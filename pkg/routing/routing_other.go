//go:build !linux

// Package routing implements netconf.Manager on top of rtnetlink.
package routing

import (
	"errors"

	"github.com/psaab/netcli/pkg/netconf"
)

// Manager is unavailable on this platform.
type Manager struct {
	netconf.Manager
}

// New always fails outside Linux.
func New() (*Manager, error) {
	return nil, errors.New("netlink backend requires linux; use --backend memory")
}
