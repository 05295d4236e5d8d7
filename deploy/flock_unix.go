//go:build unix

package deploy

import (
	"errors"
	"os"
	"syscall"
)

// flock takes an exclusive advisory lock on f. Without wait it returns
// errWouldBlock when another descriptor holds the lock.
func flock(f *os.File, wait bool) error {
	how := syscall.LOCK_EX
	if !wait {
		how |= syscall.LOCK_NB
	}
	err := syscall.Flock(int(f.Fd()), how)
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return errWouldBlock
	}
	return err
}

func funlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
