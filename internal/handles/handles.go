// Package handles maps opaque context values handed to native code back to
// the Go objects they stand for.
//
// Native callbacks receive a void* context. A Go pointer cannot be stored in
// C memory, so the Go object is registered here and native code is given the
// uintptr id instead. Ids start at 1; 0 is never issued and can be used as
// "no context" by native code.
package handles

import (
	"sync"
)

var (
	mu      sync.RWMutex
	handles = make(map[uintptr]any)
	nextID  uintptr = 1
)

// Register stores v and returns its id. v stays reachable from Go until
// Unregister is called with the same id.
//
// Thread-safe.
func Register(v any) uintptr {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	handles[id] = v
	return id
}

// Lookup returns the object registered under id, or nil.
//
// Thread-safe.
func Lookup(id uintptr) any {
	if id == 0 {
		return nil
	}
	mu.RLock()
	defer mu.RUnlock()
	return handles[id]
}

// LookupAs returns the object registered under id if it has type T.
func LookupAs[T any](id uintptr) (T, bool) {
	v, ok := Lookup(id).(T)
	return v, ok
}

// Unregister removes id. Unknown ids are ignored.
//
// Thread-safe.
func Unregister(id uintptr) {
	mu.Lock()
	defer mu.Unlock()
	delete(handles, id)
}

// Count returns the number of registered ids.
// Useful for leak checks in tests.
//
// Thread-safe.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(handles)
}
