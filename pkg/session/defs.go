// Package session tracks outstanding echo probes of one ping run:
// sequence allocation, identifier ownership and per-probe state.
package session

import (
	"errors"
	"time"
)

// State of a single probe
type State int

const (
	Pending = State(iota)
	Replied
	TimedOut
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Replied:
		return "replied"
	case TimedOut:
		return "timeout"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrSequenceInUse      = errors.New("sequence number still in flight")
	ErrTooManyInFlight    = errors.New("too many probes in flight")
	ErrUnknownSequence    = errors.New("unknown sequence number")
	ErrIdentifierMismatch = errors.New("identifier mismatch")
	ErrAlreadyResolved    = errors.New("probe already resolved")
)

// Record describes one sent probe.
type Record struct {
	Seq    uint16
	SentAt time.Time
	State  State
}
