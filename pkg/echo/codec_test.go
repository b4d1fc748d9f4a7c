package echo

import (
	"errors"
	"math/rand"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

var (
	testSrc6 = netip.MustParseAddr("2001:db8::1")
	testDst6 = netip.MustParseAddr("2001:db8::2")
)

func testCodecs(t *testing.T) map[string]*Codec {
	c4, err := NewCodec(ProtocolIPv4)
	if err != nil {
		t.Fatalf("IPv4 codec: %s", err)
	}
	c6, err := NewCodec(ProtocolIPv6, WithPseudoHeader(testSrc6, testDst6))
	if err != nil {
		t.Fatalf("IPv6 codec: %s", err)
	}
	return map[string]*Codec{"ipv4": c4, "ipv6": c6}
}

func TestRoundTrip(t *testing.T) {
	for name, codec := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			var seq uint16 = 0
			for {
				seq = seq<<1 + 1
				id := uint16(rand.Intn(0xffff))
				payload := NewPayload(time.Now(), rand.Int63(), rand.Intn(200))

				// a responder echoes request fields back in a reply
				req := codec.EncodeRequest(id, seq, payload)
				parsed, err := codec.Parse(req)
				if err != nil {
					t.Fatalf("Request parse %s", err)
				}
				if parsed.Type != codec.Protocol().RequestType() {
					t.Fatalf("Invalid request type %d", parsed.Type)
				}

				b := codec.EncodeReply(parsed.ID, parsed.Seq, parsed.Payload)
				pkt, err := codec.Decode(b)
				if err != nil {
					t.Fatalf("Decode %s", err)
				}

				want := &Packet{
					Type:     codec.Protocol().ReplyType(),
					Code:     0,
					Checksum: pkt.Checksum,
					ID:       id,
					Seq:      seq,
					Payload:  payload,
				}
				if diff := cmp.Diff(want, pkt); diff != "" {
					t.Fatalf("Decoded packet mismatch (-want +got):\n%s", diff)
				}
				if pkt.Len() != len(b) {
					t.Fatalf("Invalid packet length %d", pkt.Len())
				}

				if seq == 0xffff {
					break
				}
			}
		})
	}
}

func TestSingleBitCorruption(t *testing.T) {
	for name, codec := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			b := codec.EncodeReply(0x1234, 0xfff0, NewPayload(time.Now(), 42, 21))

			for i := range b {
				if i == 2 || i == 3 {
					// checksum field itself
					continue
				}
				for bit := 0; bit < 8; bit++ {
					corrupted := append([]byte(nil), b...)
					corrupted[i] ^= 1 << bit
					if _, err := codec.Decode(corrupted); !errors.Is(err, ErrChecksumMismatch) {
						t.Fatalf("byte %d bit %d: expected checksum mismatch, got %v", i, bit, err)
					}
				}
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	codec := testCodecs(t)["ipv4"]

	if _, err := codec.Decode([]byte{0, 0, 0}); !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort, got %v", err)
	}

	// Our own request looped back on a raw socket is not a reply
	req := codec.EncodeRequest(1, 1, nil)
	if _, err := codec.Decode(req); !errors.Is(err, ErrWrongType) {
		t.Errorf("Expected ErrWrongType, got %v", err)
	}

	// Redirect is an ICMP type without a probe failure meaning
	redirect, err := (&icmp.Message{
		Type: ipv4.ICMPTypeRedirect,
		Body: &icmp.RawBody{Data: []byte{0, 0, 0, 0}},
	}).Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal failed %s", err)
	}
	if _, err := codec.Decode(redirect); !errors.Is(err, ErrWrongType) {
		t.Errorf("Expected ErrWrongType, got %v", err)
	}

	if _, err := NewCodec(Protocol(5)); !errors.Is(err, ErrUnknownProtocol) {
		t.Errorf("Expected ErrUnknownProtocol, got %v", err)
	}
}

func TestInterop(t *testing.T) {
	codec4 := testCodecs(t)["ipv4"]
	payload := NewPayload(time.Now(), 7, DefaultPayloadSize)

	m, err := icmp.ParseMessage(ProtocolICMP, codec4.EncodeRequest(77, 3131, payload))
	if err != nil {
		t.Fatalf("Icmp parse %s", err)
	}
	body, ok := m.Body.(*icmp.Echo)
	if !ok || m.Type != ipv4.ICMPTypeEcho {
		t.Fatalf("Invalid packet body")
	}
	if body.ID != 77 || body.Seq != 3131 || !cmp.Equal(body.Data, payload) {
		t.Fatalf("Invalid echo body %+v", body)
	}

	// x/net computes ICMPv6 checksum when given a pseudo-header
	psh := icmp.IPv6PseudoHeader(net.IP(testSrc6.AsSlice()), net.IP(testDst6.AsSlice()))
	b, err := (&icmp.Message{
		Type: ipv6.ICMPTypeEchoReply,
		Body: &icmp.Echo{ID: 5, Seq: 6, Data: payload},
	}).Marshal(psh)
	if err != nil {
		t.Fatalf("Marshal failed %s", err)
	}
	pkt, err := testCodecs(t)["ipv6"].Decode(b)
	if err != nil {
		t.Fatalf("Decode failed %s", err)
	}
	if pkt.ID != 5 || pkt.Seq != 6 {
		t.Errorf("Invalid id/seq %d/%d", pkt.ID, pkt.Seq)
	}

	// Without pseudo-header the kernel owns ICMPv6 checksums
	kernel, _ := NewCodec(ProtocolIPv6)
	if kernel.ComputesChecksum() {
		t.Errorf("IPv6 codec without pseudo-header must not compute checksums")
	}
	if _, err := kernel.Decode(b); err != nil {
		t.Errorf("Decode without verification failed %s", err)
	}
	req := kernel.EncodeRequest(1, 2, nil)
	if req[2] != 0 || req[3] != 0 {
		t.Errorf("Checksum expected to be left for the kernel")
	}
}

func quotedIPv4Echo(t *testing.T, id, seq uint16) []byte {
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      1,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.ParseIP("192.0.2.1").To4(),
		DstIP:    net.ParseIP("198.51.100.7").To4(),
	}
	echoReq := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       id,
		Seq:      seq,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	err := gopacket.SerializeLayers(buf, opts, ip, echoReq, gopacket.Payload(NewPayload(time.Now(), 1, 56)))
	if err != nil {
		t.Fatalf("Serialize failed %s", err)
	}
	// routers quote IP header and first 8 bytes of the datagram
	return buf.Bytes()[:20+HeaderLength]
}

func quotedIPv6Echo(t *testing.T, id, seq uint16) []byte {
	ip := &layers.IPv6{
		Version:    6,
		HopLimit:   1,
		NextHeader: layers.IPProtocolICMPv6,
		SrcIP:      net.IP(testSrc6.AsSlice()),
		DstIP:      net.IP(testDst6.AsSlice()),
	}
	hdr := &layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0),
	}
	if err := hdr.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("Network layer %s", err)
	}
	echoReq := &layers.ICMPv6Echo{Identifier: id, SeqNumber: seq}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	err := gopacket.SerializeLayers(buf, opts, ip, hdr, echoReq, gopacket.Payload(NewPayload(time.Now(), 1, 56)))
	if err != nil {
		t.Fatalf("Serialize failed %s", err)
	}
	return buf.Bytes()
}

func TestProbeFailed(t *testing.T) {
	codecs := testCodecs(t)
	psh := icmp.IPv6PseudoHeader(net.IP(testSrc6.AsSlice()), net.IP(testDst6.AsSlice()))

	tests := []struct {
		name  string
		codec *Codec
		msg   *icmp.Message
		psh   []byte
		want  *ProbeFailedError
	}{
		{
			name:  "ipv4 host unreachable",
			codec: codecs["ipv4"],
			msg: &icmp.Message{
				Type: ipv4.ICMPTypeDestinationUnreachable, Code: 1,
				Body: &icmp.DstUnreach{Data: quotedIPv4Echo(t, 0x0102, 17)},
			},
			want: &ProbeFailedError{Type: 3, Code: 1, Reason: "Destination Host Unreachable", ID: 0x0102, Seq: 17},
		},
		{
			name:  "ipv4 ttl exceeded",
			codec: codecs["ipv4"],
			msg: &icmp.Message{
				Type: ipv4.ICMPTypeTimeExceeded,
				Body: &icmp.TimeExceeded{Data: quotedIPv4Echo(t, 9, 0xffff)},
			},
			want: &ProbeFailedError{Type: 11, Code: 0, Reason: "Time to live exceeded", ID: 9, Seq: 0xffff},
		},
		{
			name:  "ipv6 address unreachable",
			codec: codecs["ipv6"],
			psh:   psh,
			msg: &icmp.Message{
				Type: ipv6.ICMPTypeDestinationUnreachable, Code: 3,
				Body: &icmp.DstUnreach{Data: quotedIPv6Echo(t, 44, 45)},
			},
			want: &ProbeFailedError{Type: 1, Code: 3, Reason: "Address unreachable", ID: 44, Seq: 45},
		},
		{
			name:  "ipv6 hop limit",
			codec: codecs["ipv6"],
			psh:   psh,
			msg: &icmp.Message{
				Type: ipv6.ICMPTypeTimeExceeded,
				Body: &icmp.TimeExceeded{Data: quotedIPv6Echo(t, 1, 2)},
			},
			want: &ProbeFailedError{Type: 3, Code: 0, Reason: "Hop limit exceeded in transit", ID: 1, Seq: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.msg.Marshal(tt.psh)
			if err != nil {
				t.Fatalf("Marshal failed %s", err)
			}

			_, err = tt.codec.Decode(b)
			var failed *ProbeFailedError
			if !errors.As(err, &failed) {
				t.Fatalf("Expected ProbeFailedError, got %v", err)
			}
			if diff := cmp.Diff(tt.want, failed); diff != "" {
				t.Errorf("Probe failure mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestForeignError(t *testing.T) {
	// Port unreachable quoting a UDP datagram belongs to somebody else
	ip := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.ParseIP("192.0.2.1").To4(), DstIP: net.ParseIP("192.0.2.2").To4(),
	}
	udp := &layers.UDP{SrcPort: 5353, DstPort: 53}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload([]byte{1, 2, 3, 4})); err != nil {
		t.Fatalf("Serialize failed %s", err)
	}

	b, err := (&icmp.Message{
		Type: ipv4.ICMPTypeDestinationUnreachable, Code: 3,
		Body: &icmp.DstUnreach{Data: buf.Bytes()},
	}).Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal failed %s", err)
	}

	codec, _ := NewCodec(ProtocolIPv4)
	if _, err := codec.Decode(b); !errors.Is(err, ErrWrongType) {
		t.Errorf("Expected ErrWrongType, got %v", err)
	}
}
