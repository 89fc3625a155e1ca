package routing

import (
	"net"
	"net/netip"
)

// mainTable is the kernel's RT_TABLE_MAIN. The CLI calls it table 0.
const mainTable = 254

// kernelTable maps a CLI FIB number onto a kernel routing table.
func kernelTable(fib int) int {
	if fib == 0 {
		return mainTable
	}
	return fib
}

// cliTable is the inverse of kernelTable.
func cliTable(table int) int {
	if table == mainTable {
		return 0
	}
	return table
}

// addrFromIP converts ip, unmapping IPv4-in-IPv6 forms.
func addrFromIP(ip net.IP) (netip.Addr, bool) {
	if len(ip) == 0 {
		return netip.Addr{}, false
	}
	a, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

func prefixFromIPNet(n *net.IPNet) (netip.Prefix, bool) {
	if n == nil {
		return netip.Prefix{}, false
	}
	a, ok := addrFromIP(n.IP)
	if !ok {
		return netip.Prefix{}, false
	}
	ones, bits := n.Mask.Size()
	if bits == 0 {
		return netip.Prefix{}, false
	}
	if a.Is4() && bits == 128 {
		ones -= 96
	}
	return netip.PrefixFrom(a, ones), true
}

func ipNetFromPrefix(p netip.Prefix) *net.IPNet {
	a := p.Addr()
	return &net.IPNet{
		IP:   net.IP(a.AsSlice()),
		Mask: net.CIDRMask(p.Bits(), a.BitLen()),
	}
}

// defaultRoute is the destination of a route without Dst.
func defaultRoute(v6 bool) netip.Prefix {
	if v6 {
		return netip.MustParsePrefix("::/0")
	}
	return netip.MustParsePrefix("0.0.0.0/0")
}
