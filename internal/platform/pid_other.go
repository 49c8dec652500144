//go:build !unix

package platform

import "os"

// Pid returns the id of the calling process.
func Pid() int {
	return os.Getpid()
}
