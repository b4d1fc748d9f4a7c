//go:build linux

package netcfg

import (
	"net/netip"

	"github.com/vishvananda/netlink"
)

func ifnameFromIndex(idx int) (string, error) {
	l, err := netlink.LinkByIndex(idx)
	if err != nil {
		return "", err
	}

	return l.Attrs().Name, nil
}

// SourceAddr returns preferred source address and outgoing interface name
// the kernel would use to reach dst.
func SourceAddr(dst netip.Addr) (netip.Addr, string, error) {
	routes, err := netlink.RouteGet(dst.AsSlice())
	if err != nil {
		return netip.Addr{}, "", err
	}

	for _, r := range routes {
		if r.Src == nil {
			continue
		}
		addr, ok := netip.AddrFromSlice(r.Src)
		if !ok {
			continue
		}
		ifname, _ := ifnameFromIndex(r.LinkIndex)
		return addr.Unmap(), ifname, nil
	}

	// Some routes (e.g. IPv6 without preferred source) carry no Src
	addr, err := dialSource(dst)
	return addr, "", err
}
