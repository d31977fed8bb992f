package platform

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the download directory
const LockFileName = ".ytfetch.lock"

// ErrJobRunning is returned when another process holds the job lock
var ErrJobRunning = errors.New("another download job is already running")

// JobLock enforces one active download job per download directory
type JobLock struct {
	fl *flock.Flock
}

// AcquireJobLock takes the advisory job lock in dir without blocking
func AcquireJobLock(dir string) (*JobLock, error) {
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !locked {
		return nil, ErrJobRunning
	}
	return &JobLock{fl: fl}, nil
}

// Path returns the lock file path
func (l *JobLock) Path() string {
	return l.fl.Path()
}

// Release unlocks the job lock
func (l *JobLock) Release() error {
	return l.fl.Unlock()
}
