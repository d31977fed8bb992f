package download

import (
	"context"
	"errors"

	"github.com/ytget/ytfetch/internal/model"
)

var (
	// ErrThrottled is returned when the remote side rate-limited a request
	ErrThrottled = errors.New("throttling detected")

	// ErrAborted is the stop condition raised by hooks on a user abort
	ErrAborted = errors.New("aborted by user")
)

// Extractor is the external extraction/download capability.
type Extractor interface {
	// Probe queries metadata without downloading.
	Probe(ctx context.Context, url string, opts model.DownloadOptions) (*model.MediaInfo, error)

	// Download runs the transfer, invoking hooks synchronously. When a hook
	// returns an error the transfer stops and Download returns that error.
	Download(ctx context.Context, url string, opts model.DownloadOptions, hooks model.Hooks) error
}

// Callbacks connect a run to its caller. All functions are invoked on the
// worker goroutine; nil functions are ignored.
//
// OnStage reports only StageDownloading and StageMerging. OnTransition
// receives every stage change, including probing, pause and the terminal
// stage, and is meant for job records.
//
// IsAbortRequested and IsPauseRequested are polled flags written by the
// caller; the caller must make those writes atomic.
type Callbacks struct {
	OnProgress       func(Snapshot)
	OnStage          func(model.Stage)
	OnTransition     func(model.Stage)
	IsAbortRequested func() bool
	IsPauseRequested func() bool
}

func (c Callbacks) progress(s Snapshot) {
	if c.OnProgress != nil {
		c.OnProgress(s)
	}
}

func (c Callbacks) stage(s model.Stage) {
	if c.OnStage != nil {
		c.OnStage(s)
	}
}

func (c Callbacks) transition(s model.Stage) {
	if c.OnTransition != nil {
		c.OnTransition(s)
	}
}

func (c Callbacks) abortRequested() bool {
	return c.IsAbortRequested != nil && c.IsAbortRequested()
}

func (c Callbacks) pauseRequested() bool {
	return c.IsPauseRequested != nil && c.IsPauseRequested()
}
