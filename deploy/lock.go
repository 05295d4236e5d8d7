package deploy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// LockFileName is the lock file created inside a data directory.
const LockFileName = "deploy.lock"

var errWouldBlock = errors.New("lock held by another process")

// DataDirLock is an exclusive lock on a data directory. It keeps two
// deploys from writing the same receipt store and manifest.
type DataDirLock struct {
	path string
	f    *os.File
}

// LockDataDir takes the lock without waiting. It returns ErrLocked, naming
// the holder's pid when known, if another process holds it.
func LockDataDir(dir string) (*DataDirLock, error) {
	return lockDataDir(dir, false)
}

// WaitDataDir takes the lock, blocking until it is free.
func WaitDataDir(dir string) (*DataDirLock, error) {
	return lockDataDir(dir, true)
}

func lockDataDir(dir string, wait bool) (*DataDirLock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("deploy: create data dir: %w", err)
	}
	path := filepath.Join(dir, LockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("deploy: open lock file: %w", err)
	}
	if err := flock(f, wait); err != nil {
		pid := readHolder(f)
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			if pid > 0 {
				return nil, fmt.Errorf("%w: %s (pid %d)", ErrLocked, path, pid)
			}
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("deploy: lock %s: %w", path, err)
	}
	if err := writeHolder(f, os.Getpid()); err != nil {
		_ = funlock(f)
		_ = f.Close()
		return nil, fmt.Errorf("deploy: record lock holder: %w", err)
	}
	return &DataDirLock{path: path, f: f}, nil
}

func writeHolder(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0)
	return err
}

// readHolder returns the pid recorded in the lock file, or 0.
func readHolder(f *os.File) int {
	data, err := io.ReadAll(io.NewSectionReader(f, 0, 32))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0
	}
	return pid
}

// Path returns the lock file path.
func (l *DataDirLock) Path() string { return l.path }

// Unlock releases the lock. It is safe to call more than once.
func (l *DataDirLock) Unlock() {
	if l == nil || l.f == nil {
		return
	}
	_ = funlock(l.f)
	_ = l.f.Close()
	l.f = nil
}
