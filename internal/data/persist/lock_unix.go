//go:build unix

package persist

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock takes an exclusive advisory flock on the sidecar lock file,
// blocking until any concurrent invocation finishes its own
// load-mutate-save cycle.
func (f *File) Lock() error {
	lock, err := os.OpenFile(f.lockPath(), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file %s: %w", f.lockPath(), err)
	}
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX); err != nil {
		lock.Close()
		return fmt.Errorf("lock store %s: %w", f.path, err)
	}
	f.lockFile = lock
	return nil
}

// Unlock releases the advisory lock.
func (f *File) Unlock() error {
	if f.lockFile == nil {
		return nil
	}
	lock := f.lockFile
	f.lockFile = nil
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_UN); err != nil {
		lock.Close()
		return fmt.Errorf("unlock store %s: %w", f.path, err)
	}
	return lock.Close()
}
