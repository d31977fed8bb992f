package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/ytfetch/internal/model"
)

// Job runs one request on its own worker goroutine. Pause and abort are
// single-writer flags set from the caller's goroutine.
type Job struct {
	id string

	paused  atomic.Bool
	aborted atomic.Bool

	mu     sync.Mutex
	task   model.DownloadTask
	result Result

	done chan struct{}
}

// Start launches req in the background. onProgress and onStage may be nil
// and are called from the worker goroutine. Every other stage change is
// visible through Snapshot.
func (o *Orchestrator) Start(ctx context.Context, req model.DownloadRequest, onProgress func(Snapshot), onStage func(model.Stage)) *Job {
	j := &Job{
		id:   generateJobID(),
		done: make(chan struct{}),
	}
	j.task = model.DownloadTask{
		ID:        j.id,
		URL:       req.URL,
		Quality:   req.Quality,
		Stage:     model.StageIdle,
		ETA:       UnknownETALabel,
		Speed:     UnknownSpeedLabel,
		Size:      UnknownSizeLabel,
		StartedAt: time.Now(),
	}

	cb := Callbacks{
		OnProgress: func(s Snapshot) {
			j.mu.Lock()
			j.task.UpdateProgress(s.Percent, s.Speed, s.ETA, s.Size)
			j.mu.Unlock()
			if onProgress != nil {
				onProgress(s)
			}
		},
		OnStage: onStage,
		OnTransition: func(s model.Stage) {
			j.mu.Lock()
			j.task.Stage = s
			j.mu.Unlock()
		},
		IsAbortRequested: j.aborted.Load,
		IsPauseRequested: j.paused.Load,
	}

	runner := &Orchestrator{
		extractor:   o.extractor,
		settings:    o.settings,
		downloadDir: o.downloadDir,
		log:         o.log.WithField("job", j.id),
		now:         o.now,
	}

	go func() {
		defer close(j.done)
		res := runner.Run(ctx, req, cb)
		j.finish(res)
	}()

	return j
}

func (j *Job) finish(res Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.result = res
	j.task.Stage = res.Stage
	j.task.OutputPath = res.Path
	j.task.Attempts = res.Attempts
	j.task.Throttled = res.Throttled
	j.task.FinishedAt = time.Now()
	if res.Title != "" {
		j.task.Title = res.Title
	}
	if res.TotalBytes > 0 {
		j.task.Size = FormatSize(res.TotalBytes)
	}
	if res.OK {
		j.task.Percent = 100
	}
	if res.Err != nil {
		j.task.LastError = res.Err.Error()
	}
}

// ID returns the job identifier
func (j *Job) ID() string {
	return j.id
}

// Pause requests the transfer to hold at the next hook callback
func (j *Job) Pause() {
	j.paused.Store(true)
}

// Resume releases a pause
func (j *Job) Resume() {
	j.paused.Store(false)
}

// TogglePause flips the pause flag and returns the new value
func (j *Job) TogglePause() bool {
	for {
		old := j.paused.Load()
		if j.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsPaused reports whether pause is requested
func (j *Job) IsPaused() bool {
	return j.paused.Load()
}

// Abort requests cancellation. It stays set for the rest of the job.
func (j *Job) Abort() {
	j.aborted.Store(true)
}

// Done is closed when the job has finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its result
func (j *Job) Wait() Result {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Snapshot returns a copy of the job record
func (j *Job) Snapshot() model.DownloadTask {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.task
}

// generateJobID returns a time-ordered unique job ID
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	return id.String()
}
