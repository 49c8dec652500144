//go:build unix

package platform

import "golang.org/x/sys/unix"

// Pid returns the id of the calling process. It is read from the kernel on
// every call, so a forked child sees its own id.
func Pid() int {
	return unix.Getpid()
}
