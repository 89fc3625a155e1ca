package netconf

import "net/netip"

// InterfaceOptions is the type-specific part of an interface
// configuration. Exactly one concrete options type exists per interface
// family; plain interfaces carry none.
type InterfaceOptions interface {
	// OptionsType returns the interface type the options belong to.
	OptionsType() InterfaceType
	CloneOptions() InterfaceOptions
}

// BridgeOptions configures a bridge.
type BridgeOptions struct {
	Members  []string
	STP      bool
	Priority int // 0 leaves the kernel default
}

func (*BridgeOptions) OptionsType() InterfaceType { return TypeBridge }

func (o *BridgeOptions) CloneOptions() InterfaceOptions {
	c := *o
	c.Members = append([]string(nil), o.Members...)
	return &c
}

// LaggOptions configures a link aggregation group.
type LaggOptions struct {
	Members  []string
	Protocol string // lacp, failover, loadbalance, roundrobin
}

func (*LaggOptions) OptionsType() InterfaceType { return TypeLagg }

func (o *LaggOptions) CloneOptions() InterfaceOptions {
	c := *o
	c.Members = append([]string(nil), o.Members...)
	return &c
}

// VLANOptions configures an 802.1Q sub-interface.
type VLANOptions struct {
	ID     int
	Parent string
	PCP    int
}

func (*VLANOptions) OptionsType() InterfaceType { return TypeVLAN }

func (o *VLANOptions) CloneOptions() InterfaceOptions {
	c := *o
	return &c
}

// TunnelOptions configures gre, gif and ipsec tunnels.
type TunnelOptions struct {
	Kind        InterfaceType
	Source      netip.Addr
	Destination netip.Addr
	Key         uint32
	TunnelVRF   int
}

func (o *TunnelOptions) OptionsType() InterfaceType { return o.Kind }

func (o *TunnelOptions) CloneOptions() InterfaceOptions {
	c := *o
	return &c
}

// VXLANOptions configures a VXLAN endpoint.
type VXLANOptions struct {
	VNI    int
	Local  netip.Addr
	Remote netip.Addr
	Port   int
}

func (*VXLANOptions) OptionsType() InterfaceType { return TypeVXLAN }

func (o *VXLANOptions) CloneOptions() InterfaceOptions {
	c := *o
	return &c
}

// WLANOptions configures a wireless clone interface.
type WLANOptions struct {
	SSID     string
	Channel  int
	Parent   string
	AuthMode string
}

func (*WLANOptions) OptionsType() InterfaceType { return TypeWLAN }

func (o *WLANOptions) CloneOptions() InterfaceOptions {
	c := *o
	return &c
}

// WireGuardOptions configures a WireGuard interface.
type WireGuardOptions struct {
	ListenPort int
}

func (*WireGuardOptions) OptionsType() InterfaceType { return TypeWireGuard }

func (o *WireGuardOptions) CloneOptions() InterfaceOptions {
	c := *o
	return &c
}

// CARPOptions configures a CARP virtual host.
type CARPOptions struct {
	VHID    int
	AdvSkew int
}

func (*CARPOptions) OptionsType() InterfaceType { return TypeCARP }

func (o *CARPOptions) CloneOptions() InterfaceOptions {
	c := *o
	return &c
}
