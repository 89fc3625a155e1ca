package command

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/psaab/netcli/pkg/netconf"
)

// Per-type interface keywords. Each type registers only the keywords that
// make sense for it; the parser consults them after the common set.

func init() {
	registerTypeKeyword(netconf.TypeBridge, "member", func(t *InterfaceToken, c *cursor) error {
		s, err := c.value("member")
		if err != nil {
			return err
		}
		o := bridgeOptions(t)
		o.Members = append(o.Members, splitList(s)...)
		return nil
	})
	registerTypeKeyword(netconf.TypeBridge, "stp", func(t *InterfaceToken, c *cursor) error {
		bridgeOptions(t).STP = true
		return nil
	})
	registerTypeKeyword(netconf.TypeBridge, "priority", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("priority", 0, 61440)
		if err != nil {
			return err
		}
		bridgeOptions(t).Priority = n
		return nil
	})

	vid := func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("vid", 1, 4094)
		if err != nil {
			return err
		}
		vlanOptions(t).ID = n
		return nil
	}
	registerTypeKeyword(netconf.TypeVLAN, "vid", vid)
	registerTypeKeyword(netconf.TypeVLAN, "id", vid)
	registerTypeKeyword(netconf.TypeVLAN, "parent", func(t *InterfaceToken, c *cursor) error {
		p, err := c.value("parent")
		if err != nil {
			return err
		}
		vlanOptions(t).Parent = p
		return nil
	})
	registerTypeKeyword(netconf.TypeVLAN, "pcp", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("pcp", 0, 7)
		if err != nil {
			return err
		}
		vlanOptions(t).PCP = n
		return nil
	})

	registerTypeKeyword(netconf.TypeLagg, "members", kwLaggMembers)
	registerTypeKeyword(netconf.TypeLagg, "laggport", func(t *InterfaceToken, c *cursor) error {
		p, err := c.value("laggport")
		if err != nil {
			return err
		}
		o := laggOptions(t)
		o.Members = append(o.Members, p)
		return nil
	})
	registerTypeKeyword(netconf.TypeLagg, "protocol", kwLaggProtocol)

	for _, typ := range []netconf.InterfaceType{netconf.TypeGRE, netconf.TypeGIF, netconf.TypeIPsec} {
		registerTypeKeyword(typ, "source", func(t *InterfaceToken, c *cursor) error {
			a, err := c.addrValue("source")
			if err != nil {
				return err
			}
			tunnelOptions(t).Source = a
			return nil
		})
		registerTypeKeyword(typ, "destination", func(t *InterfaceToken, c *cursor) error {
			a, err := c.addrValue("destination")
			if err != nil {
				return err
			}
			tunnelOptions(t).Destination = a
			return nil
		})
		registerTypeKeyword(typ, "key", func(t *InterfaceToken, c *cursor) error {
			s, err := c.value("key")
			if err != nil {
				return err
			}
			k, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return &FieldError{Keyword: "key", Value: s, Err: fmt.Errorf("not a 32-bit number")}
			}
			tunnelOptions(t).Key = uint32(k)
			return nil
		})
		registerTypeKeyword(typ, "tunnel-vrf", func(t *InterfaceToken, c *cursor) error {
			n, err := c.intValue("tunnel-vrf", 0, maxFIB)
			if err != nil {
				return err
			}
			tunnelOptions(t).TunnelVRF = n
			return nil
		})
	}

	registerTypeKeyword(netconf.TypeVXLAN, "vni", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("vni", 0, 1<<24-1)
		if err != nil {
			return err
		}
		vxlanOptions(t).VNI = n
		return nil
	})
	registerTypeKeyword(netconf.TypeVXLAN, "local", func(t *InterfaceToken, c *cursor) error {
		a, err := c.addrValue("local")
		if err != nil {
			return err
		}
		vxlanOptions(t).Local = a
		return nil
	})
	registerTypeKeyword(netconf.TypeVXLAN, "remote", func(t *InterfaceToken, c *cursor) error {
		a, err := c.addrValue("remote")
		if err != nil {
			return err
		}
		vxlanOptions(t).Remote = a
		return nil
	})
	registerTypeKeyword(netconf.TypeVXLAN, "port", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("port", 1, 65535)
		if err != nil {
			return err
		}
		vxlanOptions(t).Port = n
		return nil
	})

	registerTypeKeyword(netconf.TypeWLAN, "ssid", func(t *InterfaceToken, c *cursor) error {
		s, err := c.value("ssid")
		if err != nil {
			return err
		}
		wlanOptions(t).SSID = s
		return nil
	})
	registerTypeKeyword(netconf.TypeWLAN, "channel", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("channel", 1, 196)
		if err != nil {
			return err
		}
		wlanOptions(t).Channel = n
		return nil
	})
	registerTypeKeyword(netconf.TypeWLAN, "parent", func(t *InterfaceToken, c *cursor) error {
		p, err := c.value("parent")
		if err != nil {
			return err
		}
		wlanOptions(t).Parent = p
		return nil
	})
	registerTypeKeyword(netconf.TypeWLAN, "authmode", func(t *InterfaceToken, c *cursor) error {
		m, err := c.value("authmode")
		if err != nil {
			return err
		}
		wlanOptions(t).AuthMode = m
		return nil
	})

	registerTypeKeyword(netconf.TypeWireGuard, "listen-port", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("listen-port", 1, 65535)
		if err != nil {
			return err
		}
		wireguardOptions(t).ListenPort = n
		return nil
	})

	registerTypeKeyword(netconf.TypeCARP, "vhid", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("vhid", 1, 255)
		if err != nil {
			return err
		}
		carpOptions(t).VHID = n
		return nil
	})
	registerTypeKeyword(netconf.TypeCARP, "advskew", func(t *InterfaceToken, c *cursor) error {
		n, err := c.intValue("advskew", 0, 254)
		if err != nil {
			return err
		}
		carpOptions(t).AdvSkew = n
		return nil
	})
}

var laggProtocols = map[string]bool{
	"lacp": true, "failover": true, "loadbalance": true,
	"roundrobin": true, "broadcast": true, "none": true,
}

// LaggProtocols returns the accepted lagg protocol names, sorted.
func LaggProtocols() []string {
	out := make([]string, 0, len(laggProtocols))
	for p := range laggProtocols {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func kwLaggMembers(t *InterfaceToken, c *cursor) error {
	s, err := c.value("members")
	if err != nil {
		return err
	}
	laggOptions(t).Members = splitList(s)
	return nil
}

func kwLaggProtocol(t *InterfaceToken, c *cursor) error {
	p, err := c.value("protocol")
	if err != nil {
		return err
	}
	if !laggProtocols[p] {
		return &FieldError{Keyword: "protocol", Value: p, Err: fmt.Errorf("unknown lagg protocol")}
	}
	laggOptions(t).Protocol = p
	return nil
}

// options returns the token's options of type T, replacing options of any
// other type with a fresh value from mk.
func options[T netconf.InterfaceOptions](t *InterfaceToken, mk func() T) T {
	if o, ok := t.Options.(T); ok {
		return o
	}
	o := mk()
	t.Options = o
	return o
}

func bridgeOptions(t *InterfaceToken) *netconf.BridgeOptions {
	return options(t, func() *netconf.BridgeOptions { return &netconf.BridgeOptions{} })
}

func laggOptions(t *InterfaceToken) *netconf.LaggOptions {
	return options(t, func() *netconf.LaggOptions { return &netconf.LaggOptions{} })
}

func vlanOptions(t *InterfaceToken) *netconf.VLANOptions {
	return options(t, func() *netconf.VLANOptions { return &netconf.VLANOptions{} })
}

func tunnelOptions(t *InterfaceToken) *netconf.TunnelOptions {
	o := options(t, func() *netconf.TunnelOptions { return &netconf.TunnelOptions{} })
	o.Kind = t.Type
	return o
}

func vxlanOptions(t *InterfaceToken) *netconf.VXLANOptions {
	return options(t, func() *netconf.VXLANOptions { return &netconf.VXLANOptions{} })
}

func wlanOptions(t *InterfaceToken) *netconf.WLANOptions {
	return options(t, func() *netconf.WLANOptions { return &netconf.WLANOptions{} })
}

func wireguardOptions(t *InterfaceToken) *netconf.WireGuardOptions {
	return options(t, func() *netconf.WireGuardOptions { return &netconf.WireGuardOptions{} })
}

func carpOptions(t *InterfaceToken) *netconf.CARPOptions {
	return options(t, func() *netconf.CARPOptions { return &netconf.CARPOptions{} })
}
