//go:build windows

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// acquireLock writes a PID lockfile in dir. It fails when another live
// process holds the lock; stale lockfiles are replaced.
//
// On Windows, os.FindProcess always succeeds, so Signal(nil) is used to
// check whether the PID is still alive.
func acquireLock(dir string) (func(), error) {
	lockPath := filepath.Join(dir, "radiotoggle-tray.pid")

	if data, err := os.ReadFile(lockPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			if proc, err := os.FindProcess(pid); err == nil && proc.Signal(nil) == nil {
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
