//go:build !windows

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// acquireLock writes a PID lockfile in dir. It fails when another live
// process holds the lock; stale lockfiles are replaced.
func acquireLock(dir string) (func(), error) {
	lockPath := filepath.Join(dir, "radiotoggle-tray.pid")

	if data, err := os.ReadFile(lockPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
			// Signal 0 checks if the process exists without actually signaling it
			if err := syscall.Kill(pid, 0); err == nil || err == syscall.EPERM {
				return nil, fmt.Errorf("radiotoggle-tray is already running (pid %d)", pid)
			}
		}
		_ = os.Remove(lockPath)
	}

	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create lockfile %s: %w", lockPath, err)
	}

	return func() { _ = os.Remove(lockPath) }, nil
}
