package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// acquireRunLock takes the single run-lock scoped to the catalog path
// (§5 "Catalog file" shared resource: writers are serial by
// construction) before any mutation begins.
func acquireRunLock(ctx context.Context, deps *Dependencies, catalogPath string) error {
	if deps.Lock == nil || deps.Process == nil {
		return fmt.Errorf("lock/process adapters not available: %w", ErrCritical)
	}
	hostname, _ := os.Hostname()
	info := LockInfo{
		PID:       deps.Process.GetPID(),
		StartTime: time.Now(),
		Scope:     catalogPath,
		Hostname:  hostname,
	}
	if err := deps.Lock.AcquireLock(ctx, lockPathFor(catalogPath), info); err != nil {
		if strings.Contains(err.Error(), "lock is held") {
			return fmt.Errorf("run lock busy: %w: %w", err, ErrLockBusy)
		}
		return fmt.Errorf("acquire run lock: %w: %w", err, ErrCritical)
	}
	return nil
}

func releaseRunLock(ctx context.Context, deps *Dependencies, catalogPath string) {
	if deps.Lock == nil {
		return
	}
	_ = deps.Lock.ReleaseLock(ctx, lockPathFor(catalogPath))
}

func lockPathFor(catalogPath string) string {
	return catalogPath + ".lock"
}
