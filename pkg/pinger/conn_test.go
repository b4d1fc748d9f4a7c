package pinger

import (
	"net"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/echo"
)

// fakeConn simulates a remote host answering (or not) our requests
type fakeConn struct {
	codec *echo.Codec
	delay time.Duration
	// respond builds messages delivered back for a request
	respond func(req *echo.Packet) [][]byte
	// sendErr may fail send attempt n (starting at 1)
	sendErr func(n int) error
	// recvErr may fail receive call n (starting at 1)
	recvErr func(n int) error
	// from overrides reply source (e.g. a router)
	from  netip.Addr
	local netip.Addr

	mutex    sync.Mutex
	attempts int
	recvs    int
	sent     []uint16
	// bufSize truncates received packets like a socket read does
	bufSize int

	rx     chan *Packet
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(proto echo.Protocol) *fakeConn {
	codec, _ := echo.NewCodec(proto)
	return &fakeConn{
		codec:  codec,
		rx:     make(chan *Packet, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) listen(proto echo.Protocol, privileged bool, ttl, size int) (Conn, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.bufSize = recvBufferSize(size)
	return c, nil
}

func (c *fakeConn) SendPacket(b []byte, dst netip.Addr) error {
	c.mutex.Lock()
	c.attempts++
	n := c.attempts
	c.mutex.Unlock()

	if c.sendErr != nil {
		if err := c.sendErr(n); err != nil {
			return err
		}
	}

	req, err := c.codec.Parse(b)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	c.sent = append(c.sent, req.Seq)
	c.mutex.Unlock()

	if c.respond == nil {
		return nil
	}

	src := dst
	if c.from.IsValid() {
		src = c.from
	}
	replies := c.respond(req)
	time.AfterFunc(c.delay, func() {
		for _, r := range replies {
			c.deliver(&Packet{
				Bytes:      r,
				TTL:        64,
				Src:        src,
				Dst:        c.local,
				ReceivedAt: time.Now(),
			})
		}
	})

	return nil
}

func (c *fakeConn) deliver(pkt *Packet) {
	select {
	case c.rx <- pkt:
	case <-c.closed:
	}
}

func (c *fakeConn) RecvPacket(deadline time.Time) (*Packet, error) {
	c.mutex.Lock()
	c.recvs++
	n := c.recvs
	bufSize := c.bufSize
	c.mutex.Unlock()

	if c.recvErr != nil {
		if err := c.recvErr(n); err != nil {
			return nil, err
		}
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case pkt := <-c.rx:
		if bufSize > 0 && len(pkt.Bytes) > bufSize {
			pkt.Bytes = pkt.Bytes[:bufSize]
		}
		return pkt, nil
	case <-timer.C:
		return nil, os.ErrDeadlineExceeded
	case <-c.closed:
		return nil, net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Sent() []uint16 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]uint16(nil), c.sent...)
}

func (c *fakeConn) Attempts() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.attempts
}

// echoReplies answers every request with a matching reply
func echoReplies(codec *echo.Codec) func(req *echo.Packet) [][]byte {
	return func(req *echo.Packet) [][]byte {
		return [][]byte{codec.EncodeReply(req.ID, req.Seq, req.Payload)}
	}
}

type eventLog struct {
	sync.Mutex
	events []Event
}

func (l *eventLog) PingProcess(ev *Event) {
	l.Lock()
	defer l.Unlock()
	l.events = append(l.events, *ev)
}

func (l *eventLog) Results() []Result {
	l.Lock()
	defer l.Unlock()

	var ret []Result
	for _, ev := range l.events {
		ret = append(ret, ev.Result)
	}
	return ret
}

func (l *eventLog) Events() []Event {
	l.Lock()
	defer l.Unlock()
	return append([]Event(nil), l.events...)
}
