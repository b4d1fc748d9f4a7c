// Package echo encodes and decodes ICMP and ICMPv6 echo messages.
package echo

import (
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// HeaderLength is the ICMP echo header: type, code, checksum, id, seq
	HeaderLength = 8

	ProtocolICMP     = 1
	ProtocolIPv6ICMP = 58
)

// Protocol selects the ICMP flavour a codec works with.
type Protocol int

const (
	ProtocolIPv4 = Protocol(4)
	ProtocolIPv6 = Protocol(6)
)

func (p Protocol) String() string {
	switch p {
	case ProtocolIPv4:
		return "IPv4"
	case ProtocolIPv6:
		return "IPv6"
	default:
		return "unknown"
	}
}

// RequestType returns echo request ICMP type number for the protocol
func (p Protocol) RequestType() uint8 {
	if p == ProtocolIPv6 {
		return uint8(ipv6.ICMPTypeEchoRequest)
	}
	return uint8(ipv4.ICMPTypeEcho)
}

// ReplyType returns echo reply ICMP type number for the protocol
func (p Protocol) ReplyType() uint8 {
	if p == ProtocolIPv6 {
		return uint8(ipv6.ICMPTypeEchoReply)
	}
	return uint8(ipv4.ICMPTypeEchoReply)
}

// IANA returns the IP protocol number carrying the messages.
func (p Protocol) IANA() int {
	if p == ProtocolIPv6 {
		return ProtocolIPv6ICMP
	}
	return ProtocolICMP
}

// UsesPseudoHeader reports whether the checksum covers an IP pseudo-header.
// ICMPv4 checksums only the ICMP message, ICMPv6 also covers
// source, destination, length and next-header.
func (p Protocol) UsesPseudoHeader() bool {
	return p == ProtocolIPv6
}

// Packet is a decoded echo message.
type Packet struct {
	Type     uint8
	Code     uint8
	Checksum uint16
	ID       uint16
	Seq      uint16
	Payload  []byte
}

// Len returns the length of the marshaled message.
func (pkt *Packet) Len() int {
	return HeaderLength + len(pkt.Payload)
}
