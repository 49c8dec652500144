package gcroots

import (
	"fmt"
	"io"
	"strings"
)

// Sharded spreads identities over independent registries, each with its own
// lock, so retains and releases of unrelated objects do not contend.
// Every per-identity guarantee of Registry holds unchanged.
type Sharded struct {
	shards []*Registry
}

var _ Store = (*Sharded)(nil)

// NewSharded returns a store with n shards (at least 1). The options apply
// to every shard; WithCapacity is divided between them.
func NewSharded(n int, opts ...Option) *Sharded {
	if n < 1 {
		n = 1
	}
	cfg := newConfig(opts)
	perShard := max(cfg.capacity/n, 1)

	s := &Sharded{shards: make([]*Registry, n)}
	for i := range s.shards {
		shardOpts := append(append([]Option(nil), opts...), WithCapacity(perShard))
		s.shards[i] = New(shardOpts...)
	}
	return s
}

func (s *Sharded) shard(v Value) *Registry {
	// Identities are usually aligned; drop the low bits and mix the rest.
	h := uint64(v>>4) * 0x9e3779b97f4a7c15
	return s.shards[(h>>32)%uint64(len(s.shards))]
}

// Shards returns the number of shards.
func (s *Sharded) Shards() int { return len(s.shards) }

// Retain adds one reference to v in its shard.
func (s *Sharded) Retain(v Value) { s.shard(v).Retain(v) }

// Release drops one reference to v in its shard.
func (s *Sharded) Release(v Value) { s.shard(v).Release(v) }

// Count returns the outstanding references to v.
func (s *Sharded) Count(v Value) int { return s.shard(v).Count(v) }

// Len returns the number of tracked objects across all shards.
func (s *Sharded) Len() int {
	n := 0
	for _, r := range s.shards {
		n += r.Len()
	}
	return n
}

// Mark marks every shard in order, each under its own lock. A retain that
// races with Mark may land in a shard that was already visited; the next
// cycle observes it.
func (s *Sharded) Mark(m Marker) {
	for _, r := range s.shards {
		r.Mark(m)
	}
}

// ForkReset resets the lock of every shard.
func (s *Sharded) ForkReset() {
	for _, r := range s.shards {
		r.ForkReset()
	}
}

// Teardown tears down every shard.
func (s *Sharded) Teardown() {
	for _, r := range s.shards {
		r.Teardown()
	}
}

// Stats sums the counters of all shards.
func (s *Sharded) Stats() Stats {
	var total Stats
	for _, r := range s.shards {
		st := r.Stats()
		total.Live += st.Live
		total.Capacity += st.Capacity
		total.Retains += st.Retains
		total.Releases += st.Releases
		total.UnbalancedReleases += st.UnbalancedReleases
		total.SentinelHits += st.SentinelHits
		total.Compactions += st.Compactions
		total.MarkCycles = max(total.MarkCycles, st.MarkCycles)
	}
	return total
}

// DebugDump writes each shard's dump under a shard header.
func (s *Sharded) DebugDump(w io.Writer) error {
	var sb strings.Builder
	for i, r := range s.shards {
		fmt.Fprintf(&sb, "--- shard %d/%d ---\n", i+1, len(s.shards))
		if err := r.DebugDump(&sb); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
