package filelock

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWithLockSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, func() error {
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("Expected at most one holder, got %d", maxSeen)
	}
}

func TestWithLockReturnsCallbackError(t *testing.T) {
	want := errors.New("boom")
	err := WithLock(filepath.Join(t.TempDir(), ".lock"), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Expected %v, got %v", want, err)
	}
}

func TestSharedLocksCoexist(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	first, err := LockShared(path)
	if err != nil {
		t.Fatalf("Failed to take shared lock: %v", err)
	}
	defer first()

	done := make(chan error, 1)
	go func() {
		second, err := LockShared(path)
		if err == nil {
			err = second()
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Second shared lock failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected second shared lock not to block")
	}
}

func TestLockMissingDir(t *testing.T) {
	if _, err := Lock(filepath.Join(t.TempDir(), "missing", ".lock")); err == nil {
		t.Error("Expected error for missing directory")
	}
}
