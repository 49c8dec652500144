// Package platform provides process and shared-library details for gcroots.
package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, freebsd, etc.
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// FormatLibraryName returns the platform-specific, unversioned library filename.
//
// Examples:
//   - Linux:   FormatLibraryName("rubyhost") -> "librubyhost.so"
//   - macOS:   FormatLibraryName("rubyhost") -> "librubyhost.dylib"
//   - Windows: FormatLibraryName("rubyhost") -> "rubyhost.dll"
func FormatLibraryName(name string) string {
	return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
}

// LibrarySearchPaths returns the directories searched for native libraries,
// in order: the dynamic loader path variable, PATH on Windows, standard
// system directories, then the executable's directory.
func LibrarySearchPaths(getenv func(string) string, exeDir string) []string {
	var paths []string

	switch runtime.GOOS {
	case "darwin":
		if p := getenv("DYLD_LIBRARY_PATH"); p != "" {
			paths = append(paths, splitList(p)...)
		}
	case "windows":
		if p := getenv("PATH"); p != "" {
			paths = append(paths, splitList(p)...)
		}
	default:
		if p := getenv("LD_LIBRARY_PATH"); p != "" {
			paths = append(paths, splitList(p)...)
		}
	}

	paths = append(paths, "/usr/local/lib", "/usr/lib", "/lib")

	switch runtime.GOOS {
	case "linux":
		if runtime.GOARCH == "amd64" {
			paths = append(paths, "/usr/lib/x86_64-linux-gnu")
		} else if runtime.GOARCH == "arm64" {
			paths = append(paths, "/usr/lib/aarch64-linux-gnu")
		}
	case "darwin":
		paths = append(paths, "/opt/homebrew/lib")
	}

	if exeDir != "" {
		paths = append(paths, exeDir)
	}
	return paths
}

func splitList(p string) []string {
	var out []string
	for _, dir := range filepath.SplitList(p) {
		if dir != "" {
			out = append(out, dir)
		}
	}
	return out
}
