// Package pinger runs echo probes against a single host:
// send cadence, reply matching, timeouts and statistics.
package pinger

import (
	"context"
	"errors"
	"math/rand"
	"net/netip"
	"sync"

	"github.com/SyntropyNet/syntropy-ping/internal/logger"
	"github.com/SyntropyNet/syntropy-ping/pkg/echo"
	"github.com/SyntropyNet/syntropy-ping/pkg/netcfg"
	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/scontext"
	"github.com/SyntropyNet/syntropy-ping/pkg/session"
	"github.com/SyntropyNet/syntropy-ping/pkg/state"
)

const pkgName = "Pinger. "

// SourceFunc looks up local address used to reach a destination
type SourceFunc func(dst netip.Addr) (netip.Addr, string, error)

type Pinger struct {
	sync.RWMutex
	dst     netip.Addr
	proto   echo.Protocol
	cfg     Config
	tracker int64

	listen  ListenFunc
	source  SourceFunc
	log     *logger.Logger
	clients []PingClient

	session *session.Session
	stats   *pingdata.PingStats
	runCtx  scontext.StartStopContext
	stage   state.StateMachine[Stage]

	// local address for IPv6 pseudo-header, if known
	src     netip.Addr
	rxCodec *echo.Codec
}

type Option func(*Pinger)

// WithListener replaces the socket factory
func WithListener(listen ListenFunc) Option {
	return func(p *Pinger) {
		p.listen = listen
	}
}

// WithSourceLookup replaces local address lookup used for IPv6 checksums
func WithSourceLookup(source SourceFunc) Option {
	return func(p *Pinger) {
		p.source = source
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pinger) {
		p.log = l
	}
}

// WithSession uses a preconfigured probe session (identifier, initial sequence)
func WithSession(s *session.Session) Option {
	return func(p *Pinger) {
		p.session = s
	}
}

func New(dst netip.Addr, cfg Config, opts ...Option) (*Pinger, error) {
	if !dst.IsValid() {
		return nil, ErrInvalidAddr
	}
	dst = dst.Unmap()

	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Size < echo.MinPayloadSize {
		cfg.Size = echo.MinPayloadSize
	} else if cfg.Size > MaxSize {
		cfg.Size = MaxSize
	}

	p := &Pinger{
		dst:     dst,
		proto:   echo.ProtocolIPv4,
		cfg:     cfg,
		tracker: rand.Int63(),
		listen:  Listen,
		source:  netcfg.SourceAddr,
		log:     logger.Default(),
		stats:   &pingdata.PingStats{},
	}
	if dst.Is6() {
		p.proto = echo.ProtocolIPv6
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.session == nil {
		p.session = session.New()
	}

	var err error
	p.rxCodec, err = echo.NewCodec(p.proto)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// AddClient registers an event observer.
// Clients are called from the scheduler goroutine and must not block.
func (p *Pinger) AddClient(c PingClient) {
	p.Lock()
	defer p.Unlock()
	p.clients = append(p.clients, c)
}

// Statistics returns live statistics, safe to read during Run
func (p *Pinger) Statistics() *pingdata.PingStats {
	return p.stats
}

func (p *Pinger) Addr() netip.Addr {
	return p.dst
}

func (p *Pinger) Protocol() echo.Protocol {
	return p.proto
}

func (p *Pinger) Config() Config {
	return p.cfg
}

func (p *Pinger) Stage() Stage {
	return p.stage.GetState()
}

// Stop cancels a running pinger. Run returns shortly after.
func (p *Pinger) Stop() {
	if !p.runCtx.Running() {
		p.log.Debug().Println(pkgName, "Stop: not running")
		return
	}
	if err := p.runCtx.Stop(); err != nil {
		p.log.Debug().Println(pkgName, "Stop:", err)
	}
}

// Run sends probes until Count is reached or ctx is cancelled (or Stop is called).
// Cancellation is not an error: statistics collected so far are returned.
func (p *Pinger) Run(ctx context.Context) (pingdata.Summary, error) {
	ctx, err := p.runCtx.Start(ctx)
	if errors.Is(err, scontext.ErrParentStopped) {
		p.stage.SetState(StageDone)
		return p.stats.Summary(), nil
	} else if err != nil {
		return p.stats.Summary(), err
	}
	defer p.runCtx.Stop()
	defer p.stage.SetState(StageDone)

	conn, err := p.listen(p.proto, p.cfg.Privileged, p.cfg.TTL, p.cfg.Size)
	if err != nil {
		return p.stats.Summary(), newFatal("listen", err)
	}

	codec, err := p.sendCodec()
	if err != nil {
		conn.Close()
		return p.stats.Summary(), err
	}

	rxChan := make(chan *Packet, 16)
	errChan := make(chan error, 1)
	rxCtx, rxCancel := context.WithCancel(ctx)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.receive(rxCtx, conn, rxChan, errChan)
	}()
	defer func() {
		rxCancel()
		conn.Close()
		wg.Wait()
	}()

	p.log.Debug().Println(pkgName, "Pinging", p.dst, "id", p.session.ID(), "privileged", p.cfg.Privileged)

	err = p.schedule(ctx, conn, codec, rxChan, errChan)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	p.expireOutstanding()

	return p.stats.Summary(), err
}

// sendCodec prepares request encoder. For IPv6 the kernel fills checksums,
// but if local address is known we compute it too and reuse the pair
// to verify replies lacking destination control message.
func (p *Pinger) sendCodec() (*echo.Codec, error) {
	if !p.proto.UsesPseudoHeader() || p.source == nil {
		return echo.NewCodec(p.proto)
	}

	src, ifname, err := p.source(p.dst)
	if err != nil || !src.Is6() {
		p.log.Debug().Println(pkgName, "No source address for", p.dst, err)
		return echo.NewCodec(p.proto)
	}

	p.log.Debug().Println(pkgName, "Source", src, "via", ifname)
	p.src = src
	return echo.NewCodec(p.proto, echo.WithPseudoHeader(src, p.dst))
}

func (p *Pinger) emit(ev *Event) {
	p.RLock()
	defer p.RUnlock()

	for _, c := range p.clients {
		c.PingProcess(ev)
	}
}

// Pending probes at cancellation are lost. No events for them.
func (p *Pinger) expireOutstanding() {
	for _, seq := range p.session.Outstanding() {
		if err := p.session.Expire(seq); err == nil {
			p.stats.Record(pingdata.TimedOut())
		}
	}
}
