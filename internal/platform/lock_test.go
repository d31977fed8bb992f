package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquireJobLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	lock, err := AcquireJobLock(dir)
	if err != nil {
		t.Fatalf("AcquireJobLock failed: %v", err)
	}
	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path: %s", lock.Path())
	}

	if _, err := AcquireJobLock(dir); !errors.Is(err, ErrJobRunning) {
		t.Errorf("expected ErrJobRunning, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	again, err := AcquireJobLock(dir)
	if err != nil {
		t.Fatalf("lock should be free after release: %v", err)
	}
	_ = again.Release()
}
