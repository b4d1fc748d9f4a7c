// A simple wrapper to have State changes based on atomic variable
package state

import "sync/atomic"

// StateMachine stores a state of any uint32 based type.
// Readers may poll it from other goroutines.
type StateMachine[T ~uint32] struct {
	state uint32
}

func (stm *StateMachine[T]) SetState(newState T) {
	atomic.StoreUint32(&stm.state, uint32(newState))
}

func (stm *StateMachine[T]) GetState() T {
	return T(atomic.LoadUint32(&stm.state))
}
