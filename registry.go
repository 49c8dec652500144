package gcroots

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/obinnaokechukwu/gcroots/internal/spinlock"
)

// State is a registry's lifecycle stage.
type State int

const (
	Uninitialized State = iota
	Active
	Destroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats is a snapshot of a registry's counters.
type Stats struct {
	Live               int    // entries currently tracked
	Capacity           int    // slots in use since the last compaction
	Retains            uint64 // non-sentinel Retain calls
	Releases           uint64 // non-sentinel Release calls that found an entry
	UnbalancedReleases uint64 // Release calls for untracked values
	SentinelHits       uint64 // Retain/Release calls ignored as sentinels
	MarkCycles         uint64
	Compactions        uint64
}

// Registry maps object identities to positive reference counts under a
// single lock. Create it with New; the zero value is Uninitialized.
type Registry struct {
	lock spinlock.Lock

	entries map[Value]int
	// peak is the largest table size since the last compaction and freed the
	// number of entries removed since then. Go maps never shrink, so peak is
	// the closest thing to the table's bin count.
	peak  int
	freed int

	state State
	stats Stats

	// Immutable after New.
	capacity   int
	sentinels  []Value
	typeName   func(Value) string
	logger     *slog.Logger
	dumpOnMark io.Writer
}

var _ Store = (*Registry)(nil)

// New returns an empty, Active registry.
func New(opts ...Option) *Registry {
	cfg := newConfig(opts)
	return &Registry{
		entries:    make(map[Value]int, cfg.capacity),
		peak:       cfg.capacity,
		state:      Active,
		capacity:   cfg.capacity,
		sentinels:  cfg.sentinels,
		typeName:   cfg.typeName,
		logger:     cfg.logger,
		dumpOnMark: cfg.dumpOnMark,
	}
}

func (r *Registry) isSentinel(v Value) bool {
	for _, s := range r.sentinels {
		if v == s {
			return true
		}
	}
	return false
}

// Retain adds one reference to v, inserting it with a count of 1 if absent.
// Sentinels are ignored.
func (r *Registry) Retain(v Value) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.isSentinel(v) {
		r.stats.SentinelHits++
		return
	}
	r.stats.Retains++
	n := r.entries[v]
	r.entries[v] = n + 1
	if n == 0 && len(r.entries) > r.peak {
		r.peak = len(r.entries)
	}
}

// Release drops one reference to v. The entry is removed when its count
// reaches zero. Releasing a sentinel or an untracked value does nothing.
func (r *Registry) Release(v Value) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.isSentinel(v) {
		r.stats.SentinelHits++
		return
	}
	n, ok := r.entries[v]
	if !ok {
		r.stats.UnbalancedReleases++
		return
	}
	r.stats.Releases++
	if n > 1 {
		r.entries[v] = n - 1
		return
	}
	delete(r.entries, v)
	r.freed++
}

// Count returns the number of outstanding references to v, 0 if untracked.
func (r *Registry) Count(v Value) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.entries[v]
}

// Len returns the number of tracked objects.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.entries)
}

// State returns the lifecycle stage.
func (r *Registry) State() State {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.state
}

// Stats returns a snapshot of the registry counters.
func (r *Registry) Stats() Stats {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.statsLocked()
}

func (r *Registry) statsLocked() Stats {
	s := r.stats
	s.Live = len(r.entries)
	s.Capacity = r.peak
	if r.entries == nil {
		s.Capacity = 0
	}
	return s
}

// Mark reports every tracked object to m. It is the collector's mark hook
// and must run on every mark phase: reachability is recomputed from scratch
// each cycle. Counts are never modified. Before marking, the table is
// rebuilt if more slots were freed than are live.
func (r *Registry) Mark(m Marker) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.dumpOnMark != nil {
		_ = r.dumpLocked(r.dumpOnMark)
	}
	r.compactLocked()
	for v := range r.entries {
		m.Mark(v)
	}
	r.stats.MarkCycles++
	r.logger.Debug("gcroots: marked roots", "live", len(r.entries), "cycle", r.stats.MarkCycles)
}

func (r *Registry) compactLocked() {
	live := len(r.entries)
	if r.freed <= live || r.peak <= r.capacity {
		return
	}
	compacted := make(map[Value]int, max(live, r.capacity))
	for v, n := range r.entries {
		compacted[v] = n
	}
	r.entries = compacted
	r.peak = max(live, r.capacity)
	r.freed = 0
	r.stats.Compactions++
}

// ForkReset puts the lock back into its unlocked state. Call it exactly once
// in a forked child before any other operation. Entries are left untouched:
// identities remain valid in a copy-on-write child.
func (r *Registry) ForkReset() {
	r.lock.Reset()
}

// Teardown discards every entry and frees the table. It is the finalizer
// hook of the host object wrapping the registry; the registry must not be
// used for Retain, Release or Mark afterwards.
func (r *Registry) Teardown() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.entries = nil
	r.peak = 0
	r.freed = 0
	r.state = Destroyed
	r.logger.Info("gcroots: storage cleared")
}

// DebugDump writes one line per tracked object followed by totals. It is a
// diagnostic side channel; nothing should parse its output.
func (r *Registry) DebugDump(w io.Writer) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.dumpLocked(w)
}

// Dump returns the DebugDump output as a string.
func (r *Registry) Dump() string {
	var sb strings.Builder
	_ = r.DebugDump(&sb)
	return sb.String()
}

func (r *Registry) dumpLocked(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("Native <=> managed root storage stats:\n")

	keys := make([]Value, 0, len(r.entries))
	for v := range r.entries {
		keys = append(keys, v)
	}
	slices.Sort(keys)

	for i, v := range keys {
		tag := "unknown"
		if r.typeName != nil {
			tag = r.typeName(v)
		}
		fmt.Fprintf(&sb, "[%d] => %d X obj %s type %s\n", i, r.entries[v], v, tag)
	}
	s := r.statsLocked()
	fmt.Fprintf(&sb, "Total of %d objects protected from GC\n", s.Live)
	fmt.Fprintf(&sb, "Storage uses %d bins for %d objects\n", s.Capacity, s.Live)

	_, err := io.WriteString(w, sb.String())
	return err
}
