// Package report emits ping events and summary as JSON messages
package report

import (
	"encoding/json"
	"io"
	"net/netip"
	"sync"

	"github.com/SyntropyNet/syntropy-ping/internal/env"
	"github.com/SyntropyNet/syntropy-ping/internal/logger"
	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/pinger"
)

const pkgName = "Report. "

// Reporter writes one JSON message per Write call.
// It is a pinger client.
type Reporter struct {
	sync.Mutex
	w    io.Writer
	host string
	addr netip.Addr
}

func New(w io.Writer, host string, addr netip.Addr) *Reporter {
	return &Reporter{
		w:    w,
		host: host,
		addr: addr,
	}
}

func (r *Reporter) write(msg interface{}) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	r.Lock()
	defer r.Unlock()

	_, err = r.w.Write(append(raw, '\n'))
	return err
}

func (r *Reporter) PingProcess(ev *pinger.Event) {
	msg := EventMessage{}
	msg.ID = env.MessageDefaultID
	msg.MsgType = cmdEvent
	msg.Now()

	msg.Data = eventEntry{
		Host:   r.host,
		Seq:    ev.Seq,
		Result: ev.Result.String(),
		TTL:    ev.TTL,
		Bytes:  ev.Size,
		Reason: ev.Reason,
	}
	if ev.Src.IsValid() {
		msg.Data.From = ev.Src.String()
	}
	if ev.Result == pinger.ResultReplied || ev.Result == pinger.ResultDuplicate {
		msg.Data.Latency = milliseconds(ev.RTT)
	}

	if err := r.write(&msg); err != nil {
		logger.Warning().Println(pkgName, "event", ev.Seq, err)
	}
}

// Summary writes final statistics
func (r *Reporter) Summary(sum pingdata.Summary) error {
	msg := SummaryMessage{}
	msg.ID = env.MessageDefaultID
	msg.MsgType = cmdSummary
	msg.Now()

	msg.Data = summaryEntry{
		Host:        r.host,
		Addr:        r.addr.String(),
		Transmitted: sum.Transmitted,
		Received:    sum.Received,
		Failed:      sum.Failed,
		Duplicates:  sum.Duplicates,
		Loss:        float32(sum.Loss) / 100,
		Min:         milliseconds(sum.Min),
		Avg:         milliseconds(sum.Avg),
		Max:         milliseconds(sum.Max),
		Mdev:        milliseconds(sum.Mdev),
	}

	return r.write(&msg)
}
