package pinger

import (
	"net"
	"net/netip"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/logger"
	"github.com/SyntropyNet/syntropy-ping/pkg/echo"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// Enough for ICMP errors quoting a full size probe
	minRecvBufferSize = 1500
	// IPv4 header with options, raw sockets may deliver it
	maxIPHeaderLength = 60
)

// recvBufferSize fits an echo reply carrying payload bytes
func recvBufferSize(payload int) int {
	if n := maxIPHeaderLength + echo.HeaderLength + payload; n > minRecvBufferSize {
		return n
	}
	return minRecvBufferSize
}

var networks = map[echo.Protocol]map[bool]string{
	echo.ProtocolIPv4: {true: "ip4:icmp", false: "udp4"},
	echo.ProtocolIPv6: {true: "ip6:ipv6-icmp", false: "udp6"},
}

// Packet is a received ICMP message
type Packet struct {
	Bytes []byte
	// TTL (hop limit) of the packet, 0 if unknown
	TTL int
	// Src is the sender address
	Src netip.Addr
	// Dst is our local address, if known
	Dst        netip.Addr
	ReceivedAt time.Time
}

// Conn is a socket sending and receiving ICMP messages
type Conn interface {
	SendPacket(b []byte, dst netip.Addr) error
	// RecvPacket blocks until a packet arrives or deadline passes.
	// Deadline errors match os.ErrDeadlineExceeded.
	RecvPacket(deadline time.Time) (*Packet, error)
	Close() error
}

// ListenFunc opens a Conn for the protocol, able to receive replies
// carrying size payload bytes
type ListenFunc func(proto echo.Protocol, privileged bool, ttl, size int) (Conn, error)

type icmpConn struct {
	conn       *icmp.PacketConn
	proto      echo.Protocol
	privileged bool
	buf        []byte
}

// Listen opens ICMP socket: raw in privileged mode, datagram ICMP otherwise.
func Listen(proto echo.Protocol, privileged bool, ttl, size int) (Conn, error) {
	network, ok := networks[proto][privileged]
	if !ok {
		return nil, echo.ErrUnknownProtocol
	}

	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return nil, err
	}

	c := &icmpConn{
		conn:       conn,
		proto:      proto,
		privileged: privileged,
		buf:        make([]byte, recvBufferSize(size)),
	}

	if proto == echo.ProtocolIPv4 {
		pc := conn.IPv4PacketConn()
		if err = pc.SetTTL(ttl); err != nil {
			conn.Close()
			return nil, err
		}
		// Not all platforms support control messages on all socket types.
		// Without them TTL and local address are unknown, but pinging works.
		if err := pc.SetControlMessage(ipv4.FlagTTL|ipv4.FlagDst, true); err != nil {
			logger.Debug().Println(pkgName, "IPv4 control messages:", err)
		}
	} else {
		pc := conn.IPv6PacketConn()
		if err = pc.SetHopLimit(ttl); err != nil {
			conn.Close()
			return nil, err
		}
		if err := pc.SetControlMessage(ipv6.FlagHopLimit|ipv6.FlagDst, true); err != nil {
			logger.Debug().Println(pkgName, "IPv6 control messages:", err)
		}
	}

	return c, nil
}

func (c *icmpConn) SendPacket(b []byte, dst netip.Addr) error {
	var addr net.Addr
	if c.privileged {
		addr = &net.IPAddr{IP: dst.AsSlice(), Zone: dst.Zone()}
	} else {
		addr = &net.UDPAddr{IP: dst.AsSlice(), Zone: dst.Zone()}
	}

	_, err := c.conn.WriteTo(b, addr)
	return err
}

func (c *icmpConn) RecvPacket(deadline time.Time) (*Packet, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var n int
	var src net.Addr
	var err error
	pkt := &Packet{}

	if c.proto == echo.ProtocolIPv4 {
		var cm *ipv4.ControlMessage
		n, cm, src, err = c.conn.IPv4PacketConn().ReadFrom(c.buf)
		if cm != nil {
			pkt.TTL = cm.TTL
			pkt.Dst, _ = netip.AddrFromSlice(cm.Dst)
		}
	} else {
		var cm *ipv6.ControlMessage
		n, cm, src, err = c.conn.IPv6PacketConn().ReadFrom(c.buf)
		if cm != nil {
			pkt.TTL = cm.HopLimit
			pkt.Dst, _ = netip.AddrFromSlice(cm.Dst)
		}
	}
	if err != nil {
		return nil, err
	}
	pkt.ReceivedAt = time.Now()

	switch addr := src.(type) {
	case *net.IPAddr:
		pkt.Src, _ = netip.AddrFromSlice(addr.IP)
	case *net.UDPAddr:
		pkt.Src, _ = netip.AddrFromSlice(addr.IP)
	}
	if !pkt.Src.IsValid() {
		return nil, ErrInvalidAddr
	}
	pkt.Src = pkt.Src.Unmap()
	pkt.Dst = pkt.Dst.Unmap()

	pkt.Bytes = make([]byte, n)
	copy(pkt.Bytes, c.buf[:n])
	return pkt, nil
}

func (c *icmpConn) Close() error {
	return c.conn.Close()
}
