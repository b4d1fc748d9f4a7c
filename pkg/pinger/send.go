package pinger

import (
	"context"
	"errors"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/echo"
	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/session"
	"golang.org/x/sys/unix"
)

// schedule is the scheduler loop. It is the only place
// session and statistics are modified while running.
func (p *Pinger) schedule(ctx context.Context, conn Conn, codec *echo.Codec,
	rxChan <-chan *Packet, errChan <-chan error) error {
	var lastSend time.Time

	for p.cfg.Count == 0 || p.session.Sent() < uint64(p.cfg.Count) {
		if !lastSend.IsZero() {
			// Stray and late replies are still processed while idle
			p.stage.SetState(StageIdle)
			if err := p.wait(ctx, lastSend.Add(p.cfg.Interval), nil, rxChan, errChan); err != nil {
				return err
			}
		}

		p.stage.SetState(StageSending)
		seq, sentAt, pending, err := p.send(conn, codec)
		if err != nil {
			return err
		}
		lastSend = sentAt
		if !pending {
			continue
		}

		p.stage.SetState(StageAwaiting)
		if err := p.wait(ctx, sentAt.Add(p.cfg.Timeout), &seq, rxChan, errChan); err != nil {
			return err
		}
	}

	return nil
}

// wait processes received packets until deadline.
// If seq is given, returns as soon as that probe is resolved,
// or expires it when deadline passes.
func (p *Pinger) wait(ctx context.Context, deadline time.Time, seq *uint16,
	rxChan <-chan *Packet, errChan <-chan error) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errChan:
			return err

		case pkt := <-rxChan:
			p.handlePacket(pkt)
			if seq != nil {
				if rec, ok := p.session.Lookup(*seq); ok && rec.State != session.Pending {
					return nil
				}
			}

		case <-timer.C:
			if seq != nil {
				p.expire(*seq)
			}
			return nil
		}
	}
}

// send transmits next probe. Returns false for pending, if the probe
// was already resolved because destination is unreachable.
func (p *Pinger) send(conn Conn, codec *echo.Codec) (uint16, time.Time, bool, error) {
	seq, err := p.session.NextSequence()
	if err != nil {
		return 0, time.Time{}, false, &FatalError{Op: "send", Err: err}
	}

	sentAt := time.Now()
	b := codec.EncodeRequest(p.session.ID(), seq, echo.NewPayload(sentAt, p.tracker, p.cfg.Size))

	err = conn.SendPacket(b, p.dst)
	if err != nil && isTransient(err) {
		p.log.Debug().Println(pkgName, "Retry sending icmp_seq", seq, err)
		err = conn.SendPacket(b, p.dst)
	}

	switch {
	case err == nil:
		p.session.RecordSent(seq, sentAt)
		return seq, sentAt, true, nil

	case isUnreachable(err):
		p.session.RecordSent(seq, sentAt)
		if err := p.session.Fail(seq); err != nil {
			p.log.Error().Println(pkgName, "icmp_seq", seq, err)
		}
		p.stats.Record(pingdata.Failed())
		p.emit(&Event{
			Seq:    seq,
			Result: ResultFailed,
			Reason: unreachableReason(err),
		})
		return seq, sentAt, false, nil

	default:
		return seq, sentAt, false, newFatal("send", err)
	}
}

func (p *Pinger) expire(seq uint16) {
	if err := p.session.Expire(seq); err != nil {
		return
	}

	p.stats.Record(pingdata.TimedOut())
	p.emit(&Event{
		Seq:    seq,
		Result: ResultTimeout,
	})
}

func unreachableReason(err error) string {
	switch {
	case errors.Is(err, unix.ENETUNREACH):
		return "Destination Net Unreachable"
	case errors.Is(err, unix.EHOSTDOWN):
		return "Host is down"
	default:
		return "Destination Host Unreachable"
	}
}
