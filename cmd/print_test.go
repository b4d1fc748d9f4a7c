package main

import (
	"bytes"
	"net/netip"
	"testing"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/pinger"
	"github.com/google/go-cmp/cmp"
)

func TestTextPrinter(t *testing.T) {
	addr := netip.MustParseAddr("192.0.2.1")
	router := netip.MustParseAddr("198.51.100.1")
	buf := &bytes.Buffer{}
	tp := newTextPrinter(buf, "example.test", addr)

	tp.Header(56)
	tp.PingProcess(&pinger.Event{Seq: 1, Result: pinger.ResultReplied, RTT: 1234 * time.Microsecond,
		Src: addr, TTL: 57, Size: 64})
	tp.PingProcess(&pinger.Event{Seq: 1, Result: pinger.ResultDuplicate, RTT: 2 * time.Millisecond,
		Src: addr, Size: 64})
	tp.PingProcess(&pinger.Event{Seq: 2, Result: pinger.ResultTimeout})
	tp.PingProcess(&pinger.Event{Seq: 3, Result: pinger.ResultFailed, Src: router,
		Reason: "Destination Host Unreachable"})

	var stats pingdata.PingStats
	stats.Record(pingdata.Replied(1234 * time.Microsecond))
	stats.Record(pingdata.TimedOut())
	stats.Record(pingdata.Failed())
	stats.RecordDuplicate()
	if err := tp.Summary(stats.Summary()); err != nil {
		t.Fatalf("Summary failed %s", err)
	}

	want := `PING example.test (192.0.2.1): 56 data bytes
64 bytes from 192.0.2.1: icmp_seq=1 ttl=57 time=1.234 ms
64 bytes from 192.0.2.1: icmp_seq=1 time=2.000 ms (DUP!)
Request timeout for icmp_seq 2
From 198.51.100.1 icmp_seq=3 Destination Host Unreachable

--- example.test ping statistics ---
3 packets transmitted, 1 packets received, +1 duplicates, +1 errors, 66.7% packet loss
round-trip min/avg/max/mdev = 1.234/1.234/1.234/0.000 ms
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Output mismatch (-want +got):\n%s", diff)
	}
}

func TestTextPrinterAllLost(t *testing.T) {
	buf := &bytes.Buffer{}
	tp := newTextPrinter(buf, "192.0.2.1", netip.MustParseAddr("192.0.2.1"))

	var stats pingdata.PingStats
	stats.Record(pingdata.TimedOut())
	tp.Summary(stats.Summary())

	want := `
--- 192.0.2.1 ping statistics ---
1 packets transmitted, 0 packets received, 100.0% packet loss
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Output mismatch (-want +got):\n%s", diff)
	}
}
