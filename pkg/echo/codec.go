package echo

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/icmp"
)

// Codec marshals and parses echo messages of one protocol.
// Codec is immutable and may be shared between goroutines.
type Codec struct {
	proto Protocol
	// psh is the IPv6 pseudo-header template. Nil means the kernel
	// fills (and validates) the ICMPv6 checksum.
	psh []byte
}

type Option func(*Codec)

// WithPseudoHeader makes an ICMPv6 codec compute and verify checksums
// over the pseudo-header built from src and dst. Ignored for IPv4.
func WithPseudoHeader(src, dst netip.Addr) Option {
	return func(c *Codec) {
		if c.proto.UsesPseudoHeader() {
			c.psh = icmp.IPv6PseudoHeader(net.IP(src.AsSlice()), net.IP(dst.AsSlice()))
		}
	}
}

func NewCodec(proto Protocol, opts ...Option) (*Codec, error) {
	if proto != ProtocolIPv4 && proto != ProtocolIPv6 {
		return nil, ErrUnknownProtocol
	}

	c := &Codec{proto: proto}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithAddrs returns a copy of codec using pseudo-header of given addresses.
// Replies swap source and destination, but the checksum sum is not sensitive
// to their order, so the same pair can be used for both directions.
func (c *Codec) WithAddrs(src, dst netip.Addr) *Codec {
	cpy := &Codec{proto: c.proto}
	WithPseudoHeader(src, dst)(cpy)
	return cpy
}

func (c *Codec) Protocol() Protocol {
	return c.proto
}

// ComputesChecksum reports whether the codec fills and validates checksums itself.
func (c *Codec) ComputesChecksum() bool {
	return !c.proto.UsesPseudoHeader() || c.psh != nil
}

// EncodeRequest marshals an echo request carrying payload.
func (c *Codec) EncodeRequest(id, seq uint16, payload []byte) []byte {
	return c.marshal(c.proto.RequestType(), id, seq, payload)
}

// EncodeReply marshals an echo reply. Used by responders.
func (c *Codec) EncodeReply(id, seq uint16, payload []byte) []byte {
	return c.marshal(c.proto.ReplyType(), id, seq, payload)
}

func (c *Codec) marshal(typ uint8, id, seq uint16, payload []byte) []byte {
	b := make([]byte, HeaderLength+len(payload))
	b[0] = typ
	b[1] = 0
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	copy(b[HeaderLength:], payload)

	// checksum field is still zero here
	if c.ComputesChecksum() {
		binary.BigEndian.PutUint16(b[2:4], c.checksum(b))
	}
	return b
}

func (c *Codec) checksum(b []byte) uint16 {
	if c.psh == nil {
		return Checksum(b)
	}
	psh := make([]byte, len(c.psh))
	copy(psh, c.psh)
	binary.BigEndian.PutUint32(psh[2*net.IPv6len:], uint32(len(b)))
	return ChecksumWith(psh, b)
}

// Parse validates length and checksum and splits the header fields.
// It applies no policy on the message type.
func (c *Codec) Parse(b []byte) (*Packet, error) {
	if len(b) < HeaderLength {
		return nil, ErrTooShort
	}

	// Summing a message together with its valid checksum gives zero
	if c.ComputesChecksum() && c.checksum(b) != 0 {
		return nil, ErrChecksumMismatch
	}

	pkt := &Packet{
		Type:     b[0],
		Code:     b[1],
		Checksum: binary.BigEndian.Uint16(b[2:4]),
		ID:       binary.BigEndian.Uint16(b[4:6]),
		Seq:      binary.BigEndian.Uint16(b[6:8]),
		Payload:  make([]byte, len(b)-HeaderLength),
	}
	copy(pkt.Payload, b[HeaderLength:])

	return pkt, nil
}

// Decode parses an inbound message and accepts only echo replies.
// ICMP errors quoting one of our echo requests come back as *ProbeFailedError,
// everything else is ErrWrongType.
func (c *Codec) Decode(b []byte) (*Packet, error) {
	pkt, err := c.Parse(b)
	if err != nil {
		return nil, err
	}

	if pkt.Type == c.proto.ReplyType() && pkt.Code == 0 {
		return pkt, nil
	}

	if failure := c.probeFailure(b); failure != nil {
		return nil, failure
	}

	return nil, fmt.Errorf("%w: type=%d code=%d", ErrWrongType, pkt.Type, pkt.Code)
}
