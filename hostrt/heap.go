// Package hostrt is a small mark-and-sweep host runtime used to exercise
// gcroots stores.
//
// It models what a real host provides: immediates (nil, true, false) that
// are never allocated, heap objects with outgoing references, data objects
// carrying mark and free hooks, permanent global roots, and native stack
// pins. A Collect call runs one full cycle: mark from the roots, then sweep
// everything unmarked.
package hostrt

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/obinnaokechukwu/gcroots"
)

// ErrUnknownObject is returned for identities the heap does not own.
var ErrUnknownObject = errors.New("hostrt: unknown object")

const (
	// firstObject is the first heap identity; everything below belongs to
	// the immediates.
	firstObject gcroots.Value = 0x40
	// objectAlign is the spacing between heap identities.
	objectAlign gcroots.Value = 0x10
)

type object struct {
	typeName string
	refs     []gcroots.Value
	hooks    *gcroots.DataHooks
	marked   bool
}

// CollectStats summarises one collection cycle.
type CollectStats struct {
	Cycle  uint64
	Marked int
	Swept  int
	Live   int
}

// Heap is a managed object heap with a stop-the-world collector.
// All methods are safe for concurrent use.
type Heap struct {
	mu      sync.Mutex
	objects map[gcroots.Value]*object
	next    gcroots.Value
	globals []*gcroots.Value
	pins    map[gcroots.Value]int
	cycle   uint64

	// types mirrors objects[v].typeName so TypeName can be answered from
	// inside a mark hook, while mu is held by Collect.
	types sync.Map

	logger *slog.Logger
}

var _ gcroots.Host = (*Heap)(nil)

// Option configures a Heap.
type Option func(*Heap)

// WithLogger sets the logger used for collection summaries.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heap) {
		h.logger = l
	}
}

// NewHeap returns an empty heap.
func NewHeap(opts ...Option) *Heap {
	h := &Heap{
		objects: make(map[gcroots.Value]*object),
		next:    firstObject,
		pins:    make(map[gcroots.Value]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h
}

// IsImmediate reports whether v is one of the heap's immediates.
func IsImmediate(v gcroots.Value) bool {
	return v == gcroots.Nil || v == gcroots.True || v == gcroots.False
}

func (h *Heap) allocLocked(typeName string, refs []gcroots.Value) (gcroots.Value, *object) {
	v := h.next
	h.next += objectAlign
	obj := &object{typeName: typeName, refs: append([]gcroots.Value(nil), refs...)}
	h.objects[v] = obj
	h.types.Store(v, typeName)
	return v, obj
}

// Alloc creates an object referencing refs. The object is unreachable until
// something roots it, so the next Collect reclaims it unless it is pinned,
// referenced, or retained in a gcroots store.
func (h *Heap) Alloc(typeName string, refs ...gcroots.Value) gcroots.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, _ := h.allocLocked(typeName, refs)
	return v
}

// AllocPinned allocates an object that stays alive until unpin is called,
// the way a native stack slot keeps a fresh object alive in a conservative
// collector.
func (h *Heap) AllocPinned(typeName string, refs ...gcroots.Value) (v gcroots.Value, unpin func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, _ = h.allocLocked(typeName, refs)
	h.pins[v]++
	return v, func() { h.Unpin(v) }
}

// Pin keeps v alive until a matching Unpin.
func (h *Heap) Pin(v gcroots.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.objects[v]; !ok {
		return ErrUnknownObject
	}
	h.pins[v]++
	return nil
}

// Unpin drops one pin on v.
func (h *Heap) Unpin(v gcroots.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch n := h.pins[v]; {
	case n > 1:
		h.pins[v] = n - 1
	case n == 1:
		delete(h.pins, v)
	}
}

// SetRefs replaces the outgoing references of v.
func (h *Heap) SetRefs(v gcroots.Value, refs ...gcroots.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	obj, ok := h.objects[v]
	if !ok {
		return ErrUnknownObject
	}
	obj.refs = append(obj.refs[:0], refs...)
	return nil
}

// IsLive reports whether v is an immediate or a heap object that has not
// been reclaimed.
func (h *Heap) IsLive(v gcroots.Value) bool {
	if IsImmediate(v) {
		return true
	}
	_, ok := h.types.Load(v)
	return ok
}

// TypeName returns the type of v, or "unknown" if the heap does not own it.
// It never blocks on a running collection, so it can be used as a
// gcroots type namer.
func (h *Heap) TypeName(v gcroots.Value) string {
	switch v {
	case gcroots.Nil:
		return "nil"
	case gcroots.True:
		return "true"
	case gcroots.False:
		return "false"
	}
	if name, ok := h.types.Load(v); ok {
		return name.(string)
	}
	return "unknown"
}

// Len returns the number of heap objects.
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// WrapData creates a data object whose hooks are invoked by the collector:
// Mark once per cycle while the object is reachable, Free once when it is
// reclaimed or the heap shuts down.
func (h *Heap) WrapData(name string, hooks gcroots.DataHooks) gcroots.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, obj := h.allocLocked(name, nil)
	obj.hooks = &hooks
	return v
}

// GlobalVariable registers *ref as a permanent root. The pointer is read on
// every cycle, so the variable may be reassigned later.
func (h *Heap) GlobalVariable(ref *gcroots.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.globals = append(h.globals, ref)
}

// UnregisterGlobal removes a root registered with GlobalVariable.
func (h *Heap) UnregisterGlobal(ref *gcroots.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, g := range h.globals {
		if g == ref {
			h.globals = append(h.globals[:i], h.globals[i+1:]...)
			return
		}
	}
}

// Collect runs one mark-and-sweep cycle. Data object mark hooks are called
// with the heap lock held; they must not call back into the heap except
// through the Marker they are given (TypeName and IsLive are also safe).
func (h *Heap) Collect() CollectStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cycle++
	stats := CollectStats{Cycle: h.cycle}

	var stack []gcroots.Value
	mark := gcroots.MarkerFunc(func(v gcroots.Value) {
		obj, ok := h.objects[v]
		if !ok || obj.marked {
			return
		}
		obj.marked = true
		stats.Marked++
		stack = append(stack, v)
	})

	for _, g := range h.globals {
		mark(*g)
	}
	for v := range h.pins {
		mark(v)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		obj := h.objects[v]
		for _, ref := range obj.refs {
			mark(ref)
		}
		if obj.hooks != nil && obj.hooks.Mark != nil {
			obj.hooks.Mark(mark)
		}
	}

	for v, obj := range h.objects {
		if obj.marked {
			obj.marked = false
			continue
		}
		h.freeLocked(v, obj)
		stats.Swept++
	}
	stats.Live = len(h.objects)

	h.logger.Debug("hostrt: collected",
		"cycle", stats.Cycle, "marked", stats.Marked, "swept", stats.Swept, "live", stats.Live)
	return stats
}

func (h *Heap) freeLocked(v gcroots.Value, obj *object) {
	delete(h.objects, v)
	h.types.Delete(v)
	if obj.hooks != nil && obj.hooks.Free != nil {
		obj.hooks.Free()
	}
}

// Shutdown frees every object, including permanent roots, invoking each
// data object's Free hook exactly once. The heap is empty afterwards.
func (h *Heap) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for v, obj := range h.objects {
		h.freeLocked(v, obj)
	}
	h.globals = nil
	clear(h.pins)
	h.logger.Debug("hostrt: shut down")
}
