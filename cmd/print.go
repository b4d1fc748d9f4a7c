package main

import (
	"fmt"
	"io"
	"net/netip"
	"strings"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/pinger"
)

// textPrinter writes classic ping output
type textPrinter struct {
	w    io.Writer
	host string
	addr netip.Addr
}

func newTextPrinter(w io.Writer, host string, addr netip.Addr) *textPrinter {
	return &textPrinter{w: w, host: host, addr: addr}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (tp *textPrinter) Header(size int) {
	fmt.Fprintf(tp.w, "PING %s (%s): %d data bytes\n", tp.host, tp.addr, size)
}

func (tp *textPrinter) PingProcess(ev *pinger.Event) {
	switch ev.Result {
	case pinger.ResultReplied, pinger.ResultDuplicate:
		line := fmt.Sprintf("%d bytes from %s: icmp_seq=%d", ev.Size, ev.Src, ev.Seq)
		if ev.TTL > 0 {
			line += fmt.Sprintf(" ttl=%d", ev.TTL)
		}
		line += fmt.Sprintf(" time=%.3f ms", ms(ev.RTT))
		if ev.Result == pinger.ResultDuplicate {
			line += " (DUP!)"
		}
		fmt.Fprintln(tp.w, line)

	case pinger.ResultTimeout:
		fmt.Fprintf(tp.w, "Request timeout for icmp_seq %d\n", ev.Seq)

	case pinger.ResultFailed:
		if ev.Src.IsValid() {
			fmt.Fprintf(tp.w, "From %s icmp_seq=%d %s\n", ev.Src, ev.Seq, ev.Reason)
		} else {
			fmt.Fprintf(tp.w, "icmp_seq=%d %s\n", ev.Seq, ev.Reason)
		}
	}
}

func (tp *textPrinter) Summary(sum pingdata.Summary) error {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "\n--- %s ping statistics ---\n", tp.host)
	fmt.Fprintf(&sb, "%d packets transmitted, %d packets received, ", sum.Transmitted, sum.Received)
	if sum.Duplicates > 0 {
		fmt.Fprintf(&sb, "+%d duplicates, ", sum.Duplicates)
	}
	if sum.Failed > 0 {
		fmt.Fprintf(&sb, "+%d errors, ", sum.Failed)
	}
	fmt.Fprintf(&sb, "%.1f%% packet loss\n", sum.Loss)

	if sum.Received > 0 {
		fmt.Fprintf(&sb, "round-trip min/avg/max/mdev = %.3f/%.3f/%.3f/%.3f ms\n",
			ms(sum.Min), ms(sum.Avg), ms(sum.Max), ms(sum.Mdev))
	}

	_, err := io.WriteString(tp.w, sb.String())
	return err
}
