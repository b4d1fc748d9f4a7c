package pinger

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/echo"
	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/session"
)

var errForeignTracker = errors.New("foreign payload tracker")

// receive reads the socket and forwards packets to the scheduler.
// Runs in its own goroutine until ctx is cancelled or a fatal error happens.
func (p *Pinger) receive(ctx context.Context, conn Conn, rxChan chan<- *Packet, errChan chan<- error) {
	retried := false

	for ctx.Err() == nil {
		pkt, err := conn.RecvPacket(time.Now().Add(pollInterval))
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				retried = false
				continue
			case errors.Is(err, ErrInvalidAddr):
				p.log.Debug().Println(pkgName, "recv:", err)
				continue
			case isTransient(err) && !retried:
				retried = true
				continue
			case ctx.Err() != nil:
				// Connection is closed on exit
				return
			}

			select {
			case errChan <- newFatal("recv", err):
			case <-ctx.Done():
			}
			return
		}
		retried = false

		select {
		case rxChan <- pkt:
		case <-ctx.Done():
			return
		}
	}
}

// recvCodec returns codec able to verify ICMPv6 checksum of the packet, if
// local address is known. IPv4 codec always verifies.
func (p *Pinger) recvCodec(pkt *Packet) *echo.Codec {
	if p.proto.UsesPseudoHeader() {
		local := pkt.Dst
		if !local.IsValid() {
			local = p.src
		}
		if local.IsValid() && pkt.Src.IsValid() {
			return p.rxCodec.WithAddrs(pkt.Src, local)
		}
	}
	return p.rxCodec
}

func (p *Pinger) handlePacket(pkt *Packet) {
	reply, err := p.recvCodec(pkt).Decode(pkt.Bytes)

	var failed *echo.ProbeFailedError
	if errors.As(err, &failed) {
		p.handleFailure(pkt, failed)
		return
	} else if err != nil {
		p.ignore(pkt, err)
		return
	}

	id := reply.ID
	if !p.cfg.Privileged {
		// Kernel rewrites identifier of datagram ICMP sockets.
		// Match on our payload tracker instead.
		_, tracker, ok := echo.ParsePayload(reply.Payload)
		if !ok || tracker != p.tracker {
			p.ignore(pkt, errForeignTracker)
			return
		}
		id = p.session.ID()
	}

	rtt, err := p.session.Resolve(id, reply.Seq, pkt.ReceivedAt)
	if errors.Is(err, session.ErrAlreadyResolved) {
		// duplicate, or late reply after timeout
		if rec, ok := p.session.Lookup(reply.Seq); ok {
			rtt = pkt.ReceivedAt.Sub(rec.SentAt)
		}
		p.stats.RecordDuplicate()
		p.emit(&Event{
			Seq:    reply.Seq,
			Result: ResultDuplicate,
			RTT:    rtt,
			Src:    pkt.Src,
			TTL:    pkt.TTL,
			Size:   len(pkt.Bytes),
		})
		return
	} else if err != nil {
		p.ignore(pkt, err)
		return
	}

	p.stats.Record(pingdata.Replied(rtt))
	p.emit(&Event{
		Seq:    reply.Seq,
		Result: ResultReplied,
		RTT:    rtt,
		Src:    pkt.Src,
		TTL:    pkt.TTL,
		Size:   len(pkt.Bytes),
	})
}

func (p *Pinger) handleFailure(pkt *Packet, failed *echo.ProbeFailedError) {
	// Quoted identifier is the kernel chosen one for datagram sockets
	if p.cfg.Privileged && failed.ID != p.session.ID() {
		p.ignore(pkt, session.ErrIdentifierMismatch)
		return
	}

	if err := p.session.Fail(failed.Seq); err != nil {
		p.ignore(pkt, err)
		return
	}

	p.stats.Record(pingdata.Failed())
	p.emit(&Event{
		Seq:    failed.Seq,
		Result: ResultFailed,
		Src:    pkt.Src,
		TTL:    pkt.TTL,
		Size:   len(pkt.Bytes),
		Reason: failed.Reason,
	})
}

func (p *Pinger) ignore(pkt *Packet, err error) {
	p.stats.RecordIgnored()
	p.log.Debug().Println(pkgName, "Ignored", len(pkt.Bytes), "bytes from", pkt.Src, err)
}
