package pinger

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/echo"
)

// Pings localhost over a real datagram ICMP socket.
// Raw sockets require root, so unprivileged mode is used. Skipped when
// the host does not allow it (see net.ipv4.ping_group_range).
func TestLocalhost(t *testing.T) {
	conn, err := Listen(echo.ProtocolIPv4, false, DefaultTTL, DefaultSize)
	if err != nil {
		t.Skipf("Datagram ICMP sockets not permitted: %s", err)
	}
	conn.Close()

	for _, size := range []int{DefaultSize, 1400, 2000, 9000} {
		cfg := DefaultConfig()
		cfg.Count = 2
		cfg.Interval = 50 * time.Millisecond
		cfg.Size = size
		cfg.Privileged = false

		p, err := New(netip.MustParseAddr("127.0.0.1"), cfg, WithLogger(quietLog))
		if err != nil {
			t.Fatalf("New failed %s", err)
		}

		sum, err := p.Run(context.Background())
		if err != nil {
			t.Fatalf("size=%d: Run failed %s", size, err)
		}
		if sum.Transmitted != 2 || sum.Received != 2 || sum.Ignored != 0 {
			t.Errorf("size=%d: localhost ping failed %+v", size, sum)
		}
		if sum.Avg == 0 {
			t.Errorf("size=%d: localhost invalid latency", size)
		}
	}
}
