package session

import (
	"os"
	"sync"
	"time"
)

const (
	DefaultInitialSequence = 1
	DefaultMaxInFlight     = 1
)

// Session holds identifier, sequence counter and probe records.
// All methods are safe for concurrent use.
type Session struct {
	sync.Mutex
	id          uint16
	next        uint16
	maxInFlight int
	sent        uint64
	inFlight    int
	records     map[uint16]*Record
}

type Option func(*Session)

// WithID overrides the process derived identifier
func WithID(id uint16) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithInitialSequence sets the first sequence number NextSequence returns
func WithInitialSequence(seq uint16) Option {
	return func(s *Session) {
		s.next = seq
	}
}

// WithMaxInFlight limits count of simultaneously pending probes.
// Values below 1 are ignored.
func WithMaxInFlight(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxInFlight = n
		}
	}
}

func New(opts ...Option) *Session {
	s := &Session{
		id:          uint16(os.Getpid() & 0xffff),
		next:        DefaultInitialSequence,
		maxInFlight: DefaultMaxInFlight,
		records:     make(map[uint16]*Record),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns identifier stamped into every request of the session
func (s *Session) ID() uint16 {
	return s.id
}

// NextSequence reserves the next sequence number.
// The counter wraps from 65535 to 0.
func (s *Session) NextSequence() (uint16, error) {
	s.Lock()
	defer s.Unlock()

	if s.inFlight >= s.maxInFlight {
		return 0, ErrTooManyInFlight
	}

	seq := s.next
	if rec, ok := s.records[seq]; ok && rec.State == Pending {
		return 0, ErrSequenceInUse
	}

	s.next++
	return seq, nil
}

// RecordSent stores a pending record for seq. A resolved record
// with the same (reused) sequence number is replaced.
func (s *Session) RecordSent(seq uint16, ts time.Time) {
	s.Lock()
	defer s.Unlock()

	if rec, ok := s.records[seq]; ok && rec.State == Pending {
		s.inFlight--
	}

	s.records[seq] = &Record{
		Seq:    seq,
		SentAt: ts,
		State:  Pending,
	}
	s.inFlight++
	s.sent++
}

// Resolve marks pending probe as replied and returns its round trip time.
func (s *Session) Resolve(id, seq uint16, receivedAt time.Time) (time.Duration, error) {
	s.Lock()
	defer s.Unlock()

	rec, ok := s.records[seq]
	if !ok {
		return 0, ErrUnknownSequence
	}
	if id != s.id {
		return 0, ErrIdentifierMismatch
	}
	if rec.State != Pending {
		return 0, ErrAlreadyResolved
	}

	rec.State = Replied
	s.inFlight--

	return receivedAt.Sub(rec.SentAt), nil
}

// Expire marks pending probe as timed out
func (s *Session) Expire(seq uint16) error {
	return s.finish(seq, TimedOut)
}

// Fail marks pending probe as failed (ICMP error or send error)
func (s *Session) Fail(seq uint16) error {
	return s.finish(seq, Failed)
}

func (s *Session) finish(seq uint16, state State) error {
	s.Lock()
	defer s.Unlock()

	rec, ok := s.records[seq]
	if !ok {
		return ErrUnknownSequence
	}
	if rec.State != Pending {
		return ErrAlreadyResolved
	}

	rec.State = state
	s.inFlight--
	return nil
}

// Lookup returns a copy of the probe record
func (s *Session) Lookup(seq uint16) (Record, bool) {
	s.Lock()
	defer s.Unlock()

	rec, ok := s.records[seq]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Outstanding returns sequence numbers of all unresolved probes
func (s *Session) Outstanding() []uint16 {
	s.Lock()
	defer s.Unlock()

	var ret []uint16
	for seq, rec := range s.records {
		if rec.State == Pending {
			ret = append(ret, seq)
		}
	}
	return ret
}

// InFlight returns count of pending probes
func (s *Session) InFlight() int {
	s.Lock()
	defer s.Unlock()
	return s.inFlight
}

// Sent returns count of recorded probes
func (s *Session) Sent() uint64 {
	s.Lock()
	defer s.Unlock()
	return s.sent
}
