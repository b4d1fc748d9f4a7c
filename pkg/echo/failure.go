package echo

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/icmp"
)

// probeFailure checks whether b is an ICMP error quoting an echo request.
func (c *Codec) probeFailure(b []byte) *ProbeFailedError {
	m, err := icmp.ParseMessage(c.proto.IANA(), b)
	if err != nil {
		return nil
	}

	var data []byte
	var mtu int
	switch body := m.Body.(type) {
	case *icmp.DstUnreach:
		data = body.Data
	case *icmp.TimeExceeded:
		data = body.Data
	case *icmp.ParamProb:
		data = body.Data
	case *icmp.PacketTooBig:
		data = body.Data
		mtu = body.MTU
	default:
		return nil
	}

	id, seq, ok := c.quotedEcho(data)
	if !ok {
		return nil
	}

	return &ProbeFailedError{
		Type:   b[0],
		Code:   b[1],
		Reason: failureReason(c.proto, b[0], b[1], mtu),
		ID:     id,
		Seq:    seq,
	}
}

// quotedEcho decodes the original datagram an ICMP error carries
// and returns identifier and sequence of the echo request inside.
func (c *Codec) quotedEcho(data []byte) (uint16, uint16, bool) {
	if c.proto == ProtocolIPv4 {
		pkt := gopacket.NewPacket(data, layers.LayerTypeIPv4, gopacket.Default)
		req, ok := pkt.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
		if !ok || req.TypeCode.Type() != layers.ICMPv4TypeEchoRequest {
			return 0, 0, false
		}
		return req.Id, req.Seq, true
	}

	pkt := gopacket.NewPacket(data, layers.LayerTypeIPv6, gopacket.Default)
	hdr, ok := pkt.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6)
	if !ok || hdr.TypeCode.Type() != layers.ICMPv6TypeEchoRequest {
		return 0, 0, false
	}
	req, ok := pkt.Layer(layers.LayerTypeICMPv6Echo).(*layers.ICMPv6Echo)
	if !ok {
		return 0, 0, false
	}
	return req.Identifier, req.SeqNumber, true
}

var (
	ipv4Unreachable = map[uint8]string{
		0:  "Destination Net Unreachable",
		1:  "Destination Host Unreachable",
		2:  "Destination Protocol Unreachable",
		3:  "Destination Port Unreachable",
		4:  "Frag needed and DF set",
		5:  "Source Route Failed",
		6:  "Destination Net Unknown",
		7:  "Destination Host Unknown",
		9:  "Destination Net Prohibited",
		10: "Destination Host Prohibited",
		13: "Communication prohibited by filter",
	}
	ipv4TimeExceeded = map[uint8]string{
		0: "Time to live exceeded",
		1: "Frag reassembly time exceeded",
	}
	ipv6Unreachable = map[uint8]string{
		0: "No route",
		1: "Administratively prohibited",
		2: "Beyond scope of source address",
		3: "Address unreachable",
		4: "Port unreachable",
		5: "Source address failed ingress/egress policy",
		6: "Reject route to destination",
	}
	ipv6TimeExceeded = map[uint8]string{
		0: "Hop limit exceeded in transit",
		1: "Fragment reassembly time exceeded",
	}
)

func failureReason(proto Protocol, typ, code uint8, mtu int) string {
	var table map[uint8]string
	var kind string

	if proto == ProtocolIPv4 {
		switch typ {
		case 3:
			table, kind = ipv4Unreachable, "Destination Unreachable"
		case 11:
			table, kind = ipv4TimeExceeded, "Time Exceeded"
		case 12:
			return "Parameter problem"
		}
	} else {
		switch typ {
		case 1:
			table, kind = ipv6Unreachable, "Destination unreachable"
		case 2:
			return fmt.Sprintf("Packet too big: mtu=%d", mtu)
		case 3:
			table, kind = ipv6TimeExceeded, "Time exceeded"
		case 4:
			return "Parameter problem"
		}
	}

	if reason, ok := table[code]; ok {
		return reason
	}
	return fmt.Sprintf("%s, Bad Code: %d", kind, code)
}
