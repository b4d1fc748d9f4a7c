package echo

import (
	"errors"
	"fmt"
)

var (
	ErrTooShort         = errors.New("packet too short")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrWrongType        = errors.New("not an echo reply")
	ErrUnknownProtocol  = errors.New("unknown protocol")
)

// ProbeFailedError is returned by Decode when the remote side (or a router on
// the path) answered one of our echo requests with an ICMP error message.
type ProbeFailedError struct {
	Type   uint8
	Code   uint8
	Reason string
	// ID and Seq are taken from the echo request quoted in the error body
	ID  uint16
	Seq uint16
}

func (e *ProbeFailedError) Error() string {
	return fmt.Sprintf("icmp_seq=%d %s", e.Seq, e.Reason)
}
