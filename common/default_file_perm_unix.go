//go:build !windows

package common

import (
	"os"
	"sync"
	"syscall"
)

var (
	umask     int
	umaskOnce sync.Once
)

// GetUmask retrieves the current process's umask without permanently modifying it.
// The value is cached after the first call.
func GetUmask() int {
	umaskOnce.Do(func() {
		current := syscall.Umask(0)
		syscall.Umask(current)
		umask = current
	})
	return umask
}

// DEFAULT_FILE_PERM is 0666 masked by the process umask, matching standard
// POSIX tool behavior (e.g. cp, rsync).  With a typical umask of 022 this
// produces 0644; with 002 it produces 0664, etc.
//
// On shared HPC filesystems the umask is what keeps per-run output readable
// by the submitting group, so every file jade creates honors it.
var DEFAULT_FILE_PERM = func() os.FileMode {
	return os.FileMode(0666 &^ GetUmask())
}()
