// Package filelock guards archive files against concurrent runs and provides
// atomic file writes.
//
// Two processes updating the same zip archive through 7-Zip corrupt it, so
// every backup or retry run takes an exclusive lock on a sidecar lock file
// next to the archive before invoking the archiver.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often a blocked Acquire re-attempts the lock.
const retryDelay = 250 * time.Millisecond

// ArchiveLock serializes access to one archive file across processes.
// The lock is held on a sidecar file (archive path + ".lock") so that the
// archive itself is never opened by the locker.
type ArchiveLock struct {
	flock       *flock.Flock
	archivePath string
	lockPath    string
}

// NewArchiveLock creates a lock for the given archive path.
func NewArchiveLock(archivePath string) *ArchiveLock {
	lockPath := archivePath + ".lock"
	return &ArchiveLock{
		flock:       flock.New(lockPath),
		archivePath: archivePath,
		lockPath:    lockPath,
	}
}

// LockPath returns the path of the sidecar lock file.
func (al *ArchiveLock) LockPath() string {
	return al.lockPath
}

// Acquire takes the exclusive lock, retrying until it is available or the
// context is cancelled.
func (al *ArchiveLock) Acquire(ctx context.Context) error {
	acquired, err := al.flock.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for archive %s: %w", al.archivePath, err)
	}
	if !acquired {
		return fmt.Errorf("failed to acquire lock for archive %s", al.archivePath)
	}
	return nil
}

// TryAcquire attempts to take the lock without blocking.
// Returns true if the lock was acquired, false if another run holds it.
func (al *ArchiveLock) TryAcquire() (bool, error) {
	acquired, err := al.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock for archive %s: %w", al.archivePath, err)
	}
	return acquired, nil
}

// Release drops the lock. The sidecar file is left in place; removing it
// would race with another process that has already opened it.
func (al *ArchiveLock) Release() error {
	if err := al.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock for archive %s: %w", al.archivePath, err)
	}
	return nil
}

// WithLock runs fn while holding the archive lock.
func (al *ArchiveLock) WithLock(ctx context.Context, fn func() error) error {
	return al.WithLockWait(ctx, nil, fn)
}

// WithLockWait runs fn while holding the archive lock. When the lock is
// contended, onWait is called once before blocking so callers can tell the
// operator why nothing is happening yet.
func (al *ArchiveLock) WithLockWait(ctx context.Context, onWait func(), fn func() error) error {
	acquired, err := al.TryAcquire()
	if err != nil {
		return err
	}
	if !acquired {
		if onWait != nil {
			onWait()
		}
		if err := al.Acquire(ctx); err != nil {
			return err
		}
	}
	defer al.Release()
	return fn()
}

// AtomicWrite writes data to a file atomically using a temp file and rename.
// Readers never see partial writes; on failure the original file (if it
// exists) remains unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// The temp file must live in the target directory: rename is only
	// atomic within one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Renamed successfully; skip the deferred cleanup
	tempFile = nil

	return nil
}
