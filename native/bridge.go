//go:build !ios && !android && (amd64 || arm64)

// Package native exposes a gcroots store to native code.
//
// Native code cannot hold Go pointers, so a Bridge registers its store in a
// handle table and hands out an opaque context value. Two C-callable
// functions forward to the store:
//
//	void retain(void *ctx, uintptr_t obj);
//	void release(void *ctx, uintptr_t obj);
//
// The function pointers are created once per process with purego and shared
// by every bridge, since purego callbacks are a limited resource.
package native

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/gcroots"
	"github.com/obinnaokechukwu/gcroots/internal/handles"
)

// Bridge binds a Store to an opaque context value for native callers.
type Bridge struct {
	mu     sync.Mutex
	store  gcroots.Store
	handle uintptr
}

// NewBridge registers s and returns a bridge for it. Call Close when native
// code no longer holds the context.
func NewBridge(s gcroots.Store) *Bridge {
	return &Bridge{store: s, handle: handles.Register(s)}
}

// Context returns the value native code passes back as ctx, or 0 after Close.
func (b *Bridge) Context() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

// Store returns the store behind the bridge.
func (b *Bridge) Store() gcroots.Store {
	return b.store
}

// Close unregisters the context. Callbacks arriving with the old context
// afterwards are ignored. Closing twice is harmless.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handle != 0 {
		handles.Unregister(b.handle)
		b.handle = 0
	}
	return nil
}

// Pre-registered callbacks shared by all bridges.
var (
	callbacksOnce   sync.Once
	retainCallback  uintptr
	releaseCallback uintptr
)

func initCallbacks() {
	callbacksOnce.Do(func() {
		// void retain(void *ctx, uintptr_t obj)
		retainCallback = purego.NewCallback(func(_ purego.CDecl, opaque unsafe.Pointer, obj uintptr) {
			retainFromNative(uintptr(opaque), obj)
		})
		// void release(void *ctx, uintptr_t obj)
		releaseCallback = purego.NewCallback(func(_ purego.CDecl, opaque unsafe.Pointer, obj uintptr) {
			releaseFromNative(uintptr(opaque), obj)
		})
	})
}

// RetainCallback returns the C function pointer for retain.
func RetainCallback() uintptr {
	initCallbacks()
	return retainCallback
}

// ReleaseCallback returns the C function pointer for release.
func ReleaseCallback() uintptr {
	initCallbacks()
	return releaseCallback
}

// Unknown contexts are dropped: a late callback after Close must not fault.
func retainFromNative(ctx, obj uintptr) {
	if s, ok := handles.LookupAs[gcroots.Store](ctx); ok {
		s.Retain(gcroots.Value(obj))
	}
}

func releaseFromNative(ctx, obj uintptr) {
	if s, ok := handles.LookupAs[gcroots.Store](ctx); ok {
		s.Release(gcroots.Value(obj))
	}
}
