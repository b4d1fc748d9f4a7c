package report

import (
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/env"
)

const (
	cmdEvent   = "PING_EVENT"
	cmdSummary = "PING_SUMMARY"
)

// Generic message struct (common part for all messages)
type MessageHeader struct {
	ID        string `json:"id"`
	MsgType   string `json:"type"`
	Timestamp string `json:"executed_at,omitempty"`
}

func (mh *MessageHeader) Now() {
	mh.Timestamp = time.Now().Format(env.TimeFormat)
}

type eventEntry struct {
	Host    string  `json:"host"`
	Seq     uint16  `json:"icmp_seq"`
	Result  string  `json:"result"`
	From    string  `json:"from,omitempty"`
	TTL     int     `json:"ttl,omitempty"`
	Bytes   int     `json:"bytes,omitempty"`
	Latency float32 `json:"latency_ms,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

type EventMessage struct {
	MessageHeader
	Data eventEntry `json:"data"`
}

type summaryEntry struct {
	Host        string  `json:"host"`
	Addr        string  `json:"ip"`
	Transmitted uint64  `json:"transmitted"`
	Received    uint64  `json:"received"`
	Failed      uint64  `json:"errors"`
	Duplicates  uint64  `json:"duplicates"`
	Loss        float32 `json:"packet_loss"`
	Min         float32 `json:"min_ms"`
	Avg         float32 `json:"avg_ms"`
	Max         float32 `json:"max_ms"`
	Mdev        float32 `json:"mdev_ms"`
}

type SummaryMessage struct {
	MessageHeader
	Data summaryEntry `json:"data"`
}

func milliseconds(d time.Duration) float32 {
	return float32(d.Microseconds()) / 1000
}
