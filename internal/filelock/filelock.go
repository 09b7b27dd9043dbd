// Package filelock provides advisory file locking so that several tracker
// processes sharing one store directory do not interleave their
// load-mutate-save sequences.
package filelock

import (
	"fmt"
	"os"
)

const lockFileMode = 0o600

// Lock acquires an exclusive advisory lock on the file at path,
// creating it if it does not exist. The returned function releases
// the lock and must be called when the critical section is done.
//
// Only one process can hold the lock at a time; other callers block
// until the lock is available.
func Lock(path string) (unlock func() error, err error) {
	return acquire(path, true)
}

// LockShared acquires a shared advisory lock on the file at path. Any number
// of shared holders may coexist; they exclude exclusive holders.
func LockShared(path string) (unlock func() error, err error) {
	return acquire(path, false)
}

// WithLock runs fn while holding the exclusive lock on path.
func WithLock(path string, fn func() error) (err error) {
	unlock, err := Lock(path)
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	defer func() {
		if uerr := unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("releasing lock %s: %w", path, uerr)
		}
	}()
	return fn()
}

func acquire(path string, exclusive bool) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, err
	}

	if err := lockFile(f, exclusive); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}
