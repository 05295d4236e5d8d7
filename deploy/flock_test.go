package deploy

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlock(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no cross-process lock on windows")
	}
	path := filepath.Join(t.TempDir(), LockFileName)
	open := func() *os.File {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
		require.NoError(t, err)
		t.Cleanup(func() { f.Close() })
		return f
	}

	a, b := open(), open()
	require.NoError(t, flock(a, false))
	assert.ErrorIs(t, flock(b, false), errWouldBlock)

	require.NoError(t, funlock(a))
	require.NoError(t, flock(b, true))
}

func TestLockDataDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no cross-process lock on windows")
	}
	dir := filepath.Join(t.TempDir(), "data")

	l, err := LockDataDir(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LockFileName), l.Path())

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	_, err = LockDataDir(dir)
	require.ErrorIs(t, err, ErrLocked)
	assert.Contains(t, err.Error(), "pid "+strconv.Itoa(os.Getpid()))

	l.Unlock()
	l.Unlock()

	l2, err := WaitDataDir(dir)
	require.NoError(t, err)
	l2.Unlock()
}

func TestWaitDataDir_Blocks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no cross-process lock on windows")
	}
	dir := t.TempDir()
	l, err := LockDataDir(dir)
	require.NoError(t, err)

	acquired := make(chan *DataDirLock)
	go func() {
		l2, err := WaitDataDir(dir)
		if err != nil {
			close(acquired)
			return
		}
		acquired <- l2
	}()

	select {
	case <-acquired:
		t.Fatal("WaitDataDir returned while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	l.Unlock()
	select {
	case l2, ok := <-acquired:
		require.True(t, ok, "WaitDataDir failed")
		l2.Unlock()
	case <-time.After(5 * time.Second):
		t.Fatal("WaitDataDir did not acquire the released lock")
	}
}
