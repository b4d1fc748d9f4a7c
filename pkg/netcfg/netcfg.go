// netcfg is a stateless helper to query host routing
// (source address and interface used to reach a destination)
package netcfg

import (
	"errors"
	"net"
	"net/netip"
)

var ErrNotFound = errors.New("route not found")

// discard port, only used to let the kernel pick a route
const probePort = 9

// dialSource asks the kernel for source address by connecting a UDP socket.
// No packet is sent.
func dialSource(dst netip.Addr) (netip.Addr, error) {
	conn, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(netip.AddrPortFrom(dst, probePort)))
	if err != nil {
		return netip.Addr{}, err
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, ErrNotFound
	}
	addr, ok := netip.AddrFromSlice(local.IP)
	if !ok {
		return netip.Addr{}, ErrNotFound
	}
	return addr.Unmap(), nil
}
