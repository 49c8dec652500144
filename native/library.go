//go:build !ios && !android && (amd64 || arm64)

package native

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/gcroots/internal/platform"
)

// EnvLibraryDir overrides the library search: when set, Find only looks there.
const EnvLibraryDir = "GCROOTS_NATIVE_DIR"

// Library is a dlopen'd native library that wants a retain/release table.
type Library struct {
	mu     sync.Mutex
	path   string
	handle uintptr
}

// Find returns the path of the native library called name (without prefix
// or extension). It searches, in order:
//  1. GCROOTS_NATIVE_DIR (exclusively, when set)
//  2. LD_LIBRARY_PATH / DYLD_LIBRARY_PATH / PATH
//  3. Standard library paths (/usr/local/lib, /usr/lib, ...)
//  4. Executable directory
func Find(name string) (string, error) {
	file := platform.FormatLibraryName(name)

	if dir := os.Getenv(EnvLibraryDir); dir != "" {
		path := filepath.Join(dir, file)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s=%s does not contain %s", ErrLibraryNotFound, EnvLibraryDir, dir, file)
	}

	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	for _, dir := range platform.LibrarySearchPaths(os.Getenv, exeDir) {
		path := filepath.Join(dir, file)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, file)
}

// Open loads the library at path.
func Open(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load native library at %s: %w", path, err)
	}
	return &Library{path: path, handle: handle}, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Attach hands the retain/release table to the library by calling
//
//	void symbol(void *retain, void *release, void *ctx);
//
// after which native code may call retain(ctx, obj) and release(ctx, obj)
// from any thread.
func (l *Library) Attach(b *Bridge, symbol string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == 0 {
		return ErrClosed
	}
	ctx := b.Context()
	if ctx == 0 {
		return ErrClosed
	}

	sym, err := purego.Dlsym(l.handle, symbol)
	if err != nil {
		return fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, symbol, l.path)
	}

	var install func(retain, release, ctx uintptr)
	purego.RegisterFunc(&install, sym)
	install(RetainCallback(), ReleaseCallback(), ctx)
	return nil
}

// Close unloads the library. Bridges attached to it stay valid on the Go side.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}
