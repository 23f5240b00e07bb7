package frame

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield bounds busy-waiting before the goroutine yields its P.
const spinsBeforeYield = 64

// SpinLock is a test-and-set lock for very short critical sections.
// It is not reentrant; locking it twice from one goroutine deadlocks.
// The zero value is unlocked.
type SpinLock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired.
func (l *SpinLock) Lock() {
	for spins := 0; !l.held.CompareAndSwap(false, true); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock if it is free.
func (l *SpinLock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an unlocked SpinLock panics.
func (l *SpinLock) Unlock() {
	if !l.held.Swap(false) {
		panic("frame: unlock of unlocked SpinLock")
	}
}
