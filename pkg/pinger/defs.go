package pinger

import (
	"net/netip"
	"time"
)

const (
	// Receive poll interval. Bounds how fast cancellation is noticed.
	pollInterval = 100 * time.Millisecond

	DefaultTimeout  = 2 * time.Second
	DefaultInterval = time.Second
	DefaultTTL      = 64
	DefaultSize     = 56
	// MaxSize is the largest payload fitting an IPv4 datagram
	MaxSize = 65535 - 20 - 8
)

// Config of a ping run
type Config struct {
	// Count of probes to send. 0 means until cancelled.
	Count uint
	// Timeout waiting for a reply, measured from probe send time
	Timeout time.Duration
	// Interval between probe sends
	Interval time.Duration
	// TTL (IPv4) or hop limit (IPv6) of outgoing requests
	TTL int
	// Size of echo payload
	Size int
	// Privileged uses raw sockets, unprivileged uses datagram ICMP sockets
	Privileged bool
}

func DefaultConfig() Config {
	return Config{
		Timeout:    DefaultTimeout,
		Interval:   DefaultInterval,
		TTL:        DefaultTTL,
		Size:       DefaultSize,
		Privileged: true,
	}
}

// Result of a single probe
type Result int

const (
	ResultReplied = Result(iota)
	ResultTimeout
	ResultFailed
	ResultDuplicate
)

func (r Result) String() string {
	switch r {
	case ResultReplied:
		return "replied"
	case ResultTimeout:
		return "timeout"
	case ResultFailed:
		return "failed"
	case ResultDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Event is emitted to clients for every resolved probe and every duplicate reply
type Event struct {
	Seq    uint16
	Result Result
	// RTT is set for replies and duplicates
	RTT time.Duration
	// Src is the replying host, or the router reporting an ICMP error
	Src netip.Addr
	// TTL (hop limit) of the reply, 0 if unknown
	TTL int
	// Size of received ICMP message
	Size int
	// Reason of a failed probe
	Reason string
}

// Stage of a running pinger
type Stage uint32

const (
	StageIdle = Stage(iota)
	StageSending
	StageAwaiting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageSending:
		return "sending"
	case StageAwaiting:
		return "awaiting"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Unified interface to process ping events
type PingClient interface {
	PingProcess(ev *Event)
}
