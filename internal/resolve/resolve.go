// Package resolve turns host arguments into addresses to ping
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/logger"
	"github.com/miekg/dns"
)

const pkgName = "Resolve. "

// Family selects address family to ping
type Family int

const (
	FamilyAuto = Family(iota)
	FamilyIPv4
	FamilyIPv6
)

func (f Family) network() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	default:
		return "ip"
	}
}

func (f Family) match(addr netip.Addr) bool {
	switch f {
	case FamilyIPv4:
		return addr.Is4()
	case FamilyIPv6:
		return addr.Is6()
	default:
		return true
	}
}

var (
	ErrNoAddress      = errors.New("no address associated with hostname")
	ErrFamilyMismatch = errors.New("address family mismatch")
)

type Resolver struct {
	nameserver string
	network    string
	timeout    time.Duration
}

type Option func(*Resolver)

// WithNameserver queries given server (host:port) directly
// instead of using system resolver
func WithNameserver(nameserver string) Option {
	return func(r *Resolver) {
		r.nameserver = nameserver
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{network: "udp", timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first address of host in requested family.
// IP literals are returned as is.
func (r *Resolver) Resolve(ctx context.Context, host string, family Family) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if !family.match(addr) {
			return netip.Addr{}, fmt.Errorf("%w: %s", ErrFamilyMismatch, host)
		}
		return addr, nil
	}

	var addrs []netip.Addr
	var err error
	if r.nameserver != "" {
		addrs, err = r.exchange(ctx, host, family)
	} else {
		addrs, err = net.DefaultResolver.LookupNetIP(ctx, family.network(), host)
	}
	if err != nil {
		return netip.Addr{}, err
	}

	for _, addr := range addrs {
		addr = addr.Unmap()
		if family.match(addr) {
			logger.Debug().Println(pkgName, host, "resolved to", addr)
			return addr, nil
		}
	}

	return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoAddress, host)
}

// exchange queries nameserver for A and/or AAAA records. A goes first.
func (r *Resolver) exchange(ctx context.Context, host string, family Family) ([]netip.Addr, error) {
	var qtypes []uint16
	switch family {
	case FamilyIPv4:
		qtypes = []uint16{dns.TypeA}
	case FamilyIPv6:
		qtypes = []uint16{dns.TypeAAAA}
	default:
		qtypes = []uint16{dns.TypeA, dns.TypeAAAA}
	}

	c := &dns.Client{
		Net:     r.network,
		Timeout: r.timeout,
	}

	var ret []netip.Addr
	var lastErr error
	for _, qtype := range qtypes {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qtype)

		resp, rtt, err := c.ExchangeContext(ctx, m, r.nameserver)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("%s: %s", host, dns.RcodeToString[resp.Rcode])
			continue
		}
		logger.Debug().Println(pkgName, dns.TypeToString[qtype], host, "answered in", rtt)

		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				if addr, ok := netip.AddrFromSlice(rec.A); ok {
					ret = append(ret, addr.Unmap())
				}
			case *dns.AAAA:
				if addr, ok := netip.AddrFromSlice(rec.AAAA); ok {
					ret = append(ret, addr)
				}
			}
		}
	}

	if len(ret) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return ret, nil
}
