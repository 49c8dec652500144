// Package gcroots keeps managed objects alive while native code holds
// references to them.
//
// A host runtime with a mark-and-sweep collector only sees references that
// are reachable from its own roots. When native code stores an object handle
// somewhere the collector cannot see (a C struct, a callback context, an
// event loop queue), the object would be reclaimed while still in use.
// A Registry acts as an artificial GC root: native code calls Retain when it
// starts holding a handle and Release when it stops, and the collector calls
// Mark once per mark phase so every retained object is reported as reachable.
//
// # Quick Start
//
//	reg := gcroots.New()
//	gcroots.Install(heap, reg) // heap implements gcroots.Host
//
//	reg.Retain(obj)        // native code now owns a reference
//	defer reg.Release(obj) // native code dropped it
//
// # Lifecycle
//
// A registry is Active from New until Teardown. Retain, Release and Mark are
// only valid while Active. After a fork the child must call ForkReset before
// anything else; ForkGuard automates the check.
//
// # Sentinels
//
// The immediates Nil, True and False are never collected, so retaining or
// releasing them is a no-op. WithSentinels replaces the set for hosts with a
// different encoding.
package gcroots

import "fmt"

// Value is the host runtime's opaque identity for a managed object.
type Value uintptr

// Immediate encodings that never need protection.
const (
	False Value = 0x00
	Nil   Value = 0x08
	True  Value = 0x14
)

// DefaultSentinels is the sentinel set used unless WithSentinels is given.
var DefaultSentinels = []Value{Nil, True, False}

// String formats the identity as a hex address.
func (v Value) String() string {
	return fmt.Sprintf("%#x", uintptr(v))
}

// Marker is the collector's root reporting facility. Mark is called once for
// every object that must be treated as reachable during the current mark
// phase. A Marker must not call back into the store that is marking.
type Marker interface {
	Mark(v Value)
}

// MarkerFunc adapts an ordinary function to the Marker interface.
type MarkerFunc func(v Value)

// Mark calls f(v).
func (f MarkerFunc) Mark(v Value) { f(v) }

// Store is the contract between native code, the collector and a root
// registry. Registry and Sharded implement it.
type Store interface {
	// Retain records one more native reference to v.
	Retain(v Value)
	// Release drops one native reference to v. Unbalanced releases are ignored.
	Release(v Value)
	// Mark reports every retained object to m.
	Mark(m Marker)
	// ForkReset reinitialises locks in a freshly forked child.
	ForkReset()
	// Teardown discards all entries. The store must not be used afterwards.
	Teardown()
}
