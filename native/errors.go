//go:build !ios && !android && (amd64 || arm64)

package native

import "errors"

// Common errors
var (
	// ErrClosed indicates the bridge or library has been closed.
	ErrClosed = errors.New("gcroots: resource is closed")

	// ErrLibraryNotFound indicates no candidate library file exists.
	ErrLibraryNotFound = errors.New("gcroots: native library not found")

	// ErrSymbolNotFound indicates the library does not export the requested symbol.
	ErrSymbolNotFound = errors.New("gcroots: symbol not found")
)
