// Package spinlock provides a small mutual-exclusion lock that can be forced
// back to its unlocked state.
//
// sync.Mutex cannot be reinitialised once a goroutine that no longer exists
// holds it, which is exactly the situation in a child process after a fork.
// Lock is a plain compare-and-swap word, so Reset is a single store.
package spinlock

import (
	"runtime"
	"sync/atomic"
	"time"
)

// spinsBeforeSleep is how many yields a waiter performs before it starts
// sleeping between attempts.
const spinsBeforeSleep = 64

// Lock is a spin lock. The zero value is unlocked.
type Lock struct {
	state atomic.Uint32
}

// Lock acquires the lock, spinning until it is available.
func (l *Lock) Lock() {
	for spins := 0; !l.state.CompareAndSwap(0, 1); spins++ {
		if spins < spinsBeforeSleep {
			runtime.Gosched()
			continue
		}
		time.Sleep(time.Microsecond)
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *Lock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
func (l *Lock) Unlock() {
	l.state.Store(0)
}

// Locked reports whether the lock is currently held.
func (l *Lock) Locked() bool {
	return l.state.Load() != 0
}

// Reset forces the lock into the unlocked state regardless of who holds it.
// Only call it when no other goroutine can be inside the critical section,
// e.g. in a freshly forked child.
func (l *Lock) Reset() {
	l.state.Store(0)
}
