package pinger

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	ErrPermission  = errors.New("operation not permitted, raw sockets need root or CAP_NET_RAW")
	ErrInvalidConn = errors.New("invalid connection")
	ErrInvalidAddr = errors.New("invalid address")
)

// FatalError terminates a ping run
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func newFatal(op string, err error) *FatalError {
	if isPermission(err) {
		err = fmt.Errorf("%w (%s)", ErrPermission, err)
	}
	return &FatalError{Op: op, Err: err}
}

func isPermission(err error) bool {
	return errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}

// isTransient errors are worth one more attempt
func isTransient(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOBUFS)
}

// isUnreachable send errors resolve the probe, not the run
func isUnreachable(err error) bool {
	return errors.Is(err, unix.EHOSTUNREACH) || errors.Is(err, unix.ENETUNREACH) ||
		errors.Is(err, unix.EHOSTDOWN)
}
