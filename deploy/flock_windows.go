//go:build windows

package deploy

import "os"

// Concurrent deploys into one data directory are not detected on Windows;
// the lock file only records the last holder.

func flock(*os.File, bool) error { return nil }

func funlock(*os.File) error { return nil }
