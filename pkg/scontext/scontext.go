// Stoppable/Startable context

package scontext

import (
	"context"
	"errors"
	"sync"
)

// StartStopContext guards a component that runs once at a time
// and may be stopped from another goroutine.
// Zero value is ready to use.
type StartStopContext struct {
	mutex  sync.Mutex
	cancel context.CancelFunc
}

var (
	ErrRunning       = errors.New("already running")
	ErrStopped       = errors.New("not running")
	ErrParentStopped = errors.New("parent context stopped")
)

// Start derives a cancellable context from parent.
// Fails when already started or when parent is already cancelled.
func (sc *StartStopContext) Start(parent context.Context) (context.Context, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.cancel != nil {
		return nil, ErrRunning
	}

	select {
	case <-parent.Done():
		return nil, ErrParentStopped
	default:
	}

	var ctx context.Context
	ctx, sc.cancel = context.WithCancel(parent)
	return ctx, nil
}

// Stop cancels the context returned by Start.
// Fails if not started.
func (sc *StartStopContext) Stop() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.cancel == nil {
		return ErrStopped
	}

	sc.cancel()
	sc.cancel = nil
	return nil
}

func (sc *StartStopContext) Running() bool {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return sc.cancel != nil
}
