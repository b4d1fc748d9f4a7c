//go:build !linux

package netcfg

import "net/netip"

func SourceAddr(dst netip.Addr) (netip.Addr, string, error) {
	addr, err := dialSource(dst)
	return addr, "", err
}
