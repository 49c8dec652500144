package gcroots

import (
	"sync/atomic"

	"github.com/obinnaokechukwu/gcroots/internal/platform"
)

// ForkGuard detects that the process has been duplicated and resets the
// store's locks in the child. Call Check at the entry points a forked child
// reaches first (e.g. the host's after-fork hook).
//
// The guard keeps no lock of its own, so it cannot be left held by a thread
// that did not survive the fork.
type ForkGuard struct {
	store Store
	pid   atomic.Int64
}

// NewForkGuard records the current process id for s.
func NewForkGuard(s Store) *ForkGuard {
	g := &ForkGuard{store: s}
	g.pid.Store(int64(platform.Pid()))
	return g
}

// Check calls ForkReset on the store if the process id changed since the
// last check and reports whether it did.
func (g *ForkGuard) Check() bool {
	return g.check(platform.Pid())
}

func (g *ForkGuard) check(pid int) bool {
	old := g.pid.Load()
	if old == int64(pid) || !g.pid.CompareAndSwap(old, int64(pid)) {
		return false
	}
	g.store.ForkReset()
	return true
}
