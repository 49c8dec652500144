package platform

import (
	"os"
	"runtime"
	"testing"
)

func TestLibraryExtension(t *testing.T) {
	switch runtime.GOOS {
	case "darwin":
		if LibraryExtension != ".dylib" {
			t.Errorf("expected .dylib, got %s", LibraryExtension)
		}
	case "windows":
		if LibraryExtension != ".dll" {
			t.Errorf("expected .dll, got %s", LibraryExtension)
		}
	default:
		if LibraryExtension != ".so" {
			t.Errorf("expected .so, got %s", LibraryExtension)
		}
	}
}

func TestFormatLibraryName(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"linux", "librubyhost.so"},
		{"darwin", "librubyhost.dylib"},
		{"windows", "rubyhost.dll"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if runtime.GOOS != tt.goos {
				t.Skipf("test only applies to %s", tt.goos)
			}
			if got := FormatLibraryName("rubyhost"); got != tt.want {
				t.Errorf("FormatLibraryName(%q) = %q, want %q", "rubyhost", got, tt.want)
			}
		})
	}
}

func TestLibrarySearchPaths(t *testing.T) {
	env := map[string]string{
		"LD_LIBRARY_PATH":   "/opt/a" + string(os.PathListSeparator) + "/opt/b",
		"DYLD_LIBRARY_PATH": "/opt/a" + string(os.PathListSeparator) + "/opt/b",
		"PATH":              "/opt/a" + string(os.PathListSeparator) + "/opt/b",
	}
	paths := LibrarySearchPaths(func(k string) string { return env[k] }, "/exe/dir")

	if len(paths) < 3 {
		t.Fatalf("expected several search paths, got %v", paths)
	}
	if paths[0] != "/opt/a" || paths[1] != "/opt/b" {
		t.Errorf("loader path entries should come first, got %v", paths[:2])
	}
	if paths[len(paths)-1] != "/exe/dir" {
		t.Errorf("executable directory should come last, got %q", paths[len(paths)-1])
	}
}

func TestLibrarySearchPathsSkipsEmptyEntries(t *testing.T) {
	env := map[string]string{
		"LD_LIBRARY_PATH":   string(os.PathListSeparator) + "/opt/a",
		"DYLD_LIBRARY_PATH": string(os.PathListSeparator) + "/opt/a",
		"PATH":              string(os.PathListSeparator) + "/opt/a",
	}
	paths := LibrarySearchPaths(func(k string) string { return env[k] }, "")
	for _, p := range paths {
		if p == "" {
			t.Fatalf("empty search path in %v", paths)
		}
	}
}

func TestPid(t *testing.T) {
	if got, want := Pid(), os.Getpid(); got != want {
		t.Errorf("Pid() = %d, want %d", got, want)
	}
}
