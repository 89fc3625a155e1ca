// Package metrics exports netcli command counters and a snapshot of the
// managed network state in the Prometheus text format, for the
// node_exporter textfile collector.
package metrics

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/psaab/netcli/pkg/command"
	"github.com/psaab/netcli/pkg/netconf"
)

// Metrics owns a private registry holding the command counters and the
// state collector.
type Metrics struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
}

// New registers the collectors. mgr is queried on every gather.
func New(mgr netconf.Manager) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netcli_commands_total",
			Help: "Commands executed, by verb, noun and result.",
		}, []string{"verb", "noun", "result"}),
	}
	m.registry.MustRegister(m.commands, newCollector(mgr))
	return m
}

// Observe counts one executed command.
func (m *Metrics) Observe(cmd *command.Command, err error) {
	noun := "none"
	if cmd.Object != nil {
		noun = cmd.Object.Kind().String()
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(cmd.Verb.String(), noun, result).Inc()
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile atomically replaces path with the current metrics.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// stateCollector implements prometheus.Collector, reading the manager on
// each gather.
type stateCollector struct {
	mgr netconf.Manager

	interfaces  *prometheus.Desc
	interfaceUp *prometheus.Desc
	routes      *prometheus.Desc
	vrfs        *prometheus.Desc
	neighbors   *prometheus.Desc
}

func newCollector(mgr netconf.Manager) *stateCollector {
	return &stateCollector{
		mgr: mgr,
		interfaces: prometheus.NewDesc(
			"netcli_interfaces",
			"Interfaces present, by type.",
			[]string{"type"}, nil,
		),
		interfaceUp: prometheus.NewDesc(
			"netcli_interface_up",
			"Administrative state of an interface (1 = up).",
			[]string{"interface"}, nil,
		),
		routes: prometheus.NewDesc(
			"netcli_routes",
			"Routes installed, by FIB table.",
			[]string{"table"}, nil,
		),
		vrfs: prometheus.NewDesc(
			"netcli_vrfs",
			"FIB tables configured.",
			nil, nil,
		),
		neighbors: prometheus.NewDesc(
			"netcli_neighbors",
			"Neighbor cache entries, by family.",
			[]string{"family"}, nil,
		),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.interfaces
	ch <- c.interfaceUp
	ch <- c.routes
	ch <- c.vrfs
	ch <- c.neighbors
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	if c.mgr == nil {
		return
	}
	c.collectInterfaces(ch)
	c.collectRoutes(ch)
	c.collectNeighbors(ch)
}

func (c *stateCollector) collectInterfaces(ch chan<- prometheus.Metric) {
	ifcs, err := c.mgr.GetInterfaces()
	if err != nil {
		slog.Warn("metrics: list interfaces", "err", err)
		return
	}
	byType := map[string]int{}
	for _, ifc := range ifcs {
		typ := string(ifc.Type)
		if typ == "" {
			typ = "unknown"
		}
		byType[typ]++
		up := 0.0
		if ifc.Up {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.interfaceUp, prometheus.GaugeValue, up, ifc.Name)
	}
	for typ, n := range byType {
		ch <- prometheus.MustNewConstMetric(c.interfaces, prometheus.GaugeValue, float64(n), typ)
	}
}

func (c *stateCollector) collectRoutes(ch chan<- prometheus.Metric) {
	vrfs, err := c.mgr.GetVRFs()
	if err != nil {
		slog.Warn("metrics: list vrfs", "err", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.vrfs, prometheus.GaugeValue, float64(len(vrfs)))
	for _, v := range vrfs {
		routes, err := c.mgr.GetRoutes(v.Table)
		if err != nil {
			slog.Warn("metrics: list routes", "table", v.Table, "err", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue,
			float64(len(routes)), strconv.Itoa(v.Table))
	}
}

func (c *stateCollector) collectNeighbors(ch chan<- prometheus.Metric) {
	if arp, err := c.mgr.GetArpEntries(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.neighbors, prometheus.GaugeValue, float64(len(arp)), "inet")
	} else {
		slog.Warn("metrics: list arp", "err", err)
	}
	if ndp, err := c.mgr.GetNdpEntries(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.neighbors, prometheus.GaugeValue, float64(len(ndp)), "inet6")
	} else {
		slog.Warn("metrics: list ndp", "err", err)
	}
}
