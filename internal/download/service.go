package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/ytfetch/internal/config"
	"github.com/ytget/ytfetch/internal/model"
	"github.com/ytget/ytfetch/internal/platform"
)

// Result is the outcome of one Run
type Result struct {
	OK         bool
	Path       string // final path on success, best known partial path on abort
	Stage      model.Stage
	Throttled  bool // throttle retries were exhausted
	Err        error
	Attempts   int
	Title      string
	TotalBytes int64
}

// Orchestrator drives download jobs through probing, transfer, merging and
// throttle retries. One Orchestrator may serve sequential runs.
type Orchestrator struct {
	extractor   Extractor
	settings    *config.Settings
	downloadDir string
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewOrchestrator creates an orchestrator writing into downloadDir
func NewOrchestrator(extractor Extractor, settings *config.Settings, downloadDir string, log logrus.FieldLogger) *Orchestrator {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		extractor:   extractor,
		settings:    settings,
		downloadDir: downloadDir,
		log:         log,
		now:         time.Now,
	}
}

// DownloadDir returns the output directory
func (o *Orchestrator) DownloadDir() string {
	return o.downloadDir
}

// Run executes req until it completes, fails or is aborted. It never
// panics or returns early on errors; the outcome is in Result. Cancelling
// ctx is treated as an abort request.
func (o *Orchestrator) Run(ctx context.Context, req model.DownloadRequest, cb Callbacks) Result {
	t := o.settings.Throttle
	throttle := NewThrottleManager(t.RetryDelay, t.BackoffMultiplier, t.MaxRetries)
	log := o.log.WithField("url", req.URL)

	r := &run{
		o:        o,
		ctx:      ctx,
		req:      req,
		cb:       cb,
		throttle: throttle,
		probe:    NewMetadataProbe(o.extractor, throttle, log),
		stage:    model.StageIdle,
		log:      log,
	}
	return r.execute()
}

// run is the state of one logical job across its attempts
type run struct {
	o        *Orchestrator
	ctx      context.Context
	req      model.DownloadRequest
	cb       Callbacks
	throttle *ThrottleManager
	probe    *MetadataProbe
	log      logrus.FieldLogger

	mu    sync.Mutex
	stage model.Stage

	attempts int
	path     string // allocated once, reused by retries
	title    string
	total    int64
}

func (r *run) execute() Result {
	if err := platform.CreateDirectoryIfNotExists(r.o.downloadDir); err != nil {
		return r.fail(fmt.Errorf("failed to create download directory: %w", err))
	}

	opts := BuildOptions(r.req.Quality, r.o.settings)

	for {
		r.attempts++
		r.log = r.log.WithField("attempt", r.attempts)

		if r.aborted() {
			return r.abort("")
		}

		r.setStage(model.StageProbing, false)
		total, title, err := r.probe.Probe(r.ctx, r.req.URL, opts)
		if err != nil {
			if retry := r.afterThrottle(err); retry {
				continue
			}
			return r.stopAfterThrottle(err, "")
		}
		if r.aborted() {
			return r.abort("")
		}

		if err := r.prepareOutput(total, title); err != nil {
			return r.fail(err)
		}

		attemptOpts := opts
		attemptOpts.OutputTemplate = outputTemplate(r.path)

		agg := NewProgressAggregator(r.total, r.o.settings.Progress.SmoothingWindow, r.o.settings.Progress.UIUpdateInterval, r.o.now)
		hooks := newHookSet(r, agg)

		r.setStage(model.StageDownloading, true)
		r.log.WithField("path", r.path).Info("Download started")

		err = r.o.extractor.Download(r.ctx, r.req.URL, attemptOpts, hooks.hooks())
		if err == nil {
			r.log.WithField("sub_files", hooks.transfer().SubFilesCompleted).Debug("Transfer finished")
			hooks.enterMerging()
			r.throttle.Reset()
			return r.complete()
		}

		if errors.Is(err, ErrAborted) || r.aborted() {
			return r.abort(hooks.lastFilename())
		}
		if r.throttle.DetectThrottling(err.Error()) {
			r.throttle.MarkThrottled()
			if retry := r.afterThrottle(err); retry {
				continue
			}
			return r.stopAfterThrottle(err, hooks.lastFilename())
		}
		return r.fail(fmt.Errorf("download failed: %w", err))
	}
}

// prepareOutput allocates the destination on the first attempt. Retries
// keep the name and clear stale partial artifacts left under it.
func (r *run) prepareOutput(total int64, title string) error {
	if total > 0 {
		r.total = total
	}
	if r.path != "" {
		removed, err := platform.CleanupPartial(r.path)
		if err != nil {
			r.log.WithError(err).Warn("Failed to remove stale partial files")
		}
		if len(removed) > 0 {
			r.log.WithField("files", len(removed)).Debug("Removed stale partial files before retry")
		}
		return nil
	}

	r.title = title
	path, err := platform.AllocateName(title, r.o.downloadDir, r.req.Quality.Extension())
	if err != nil {
		return fmt.Errorf("failed to allocate output name: %w", err)
	}
	r.path = path
	return nil
}

// afterThrottle decides whether to retry a throttled attempt and waits out
// the backoff. The throttle must already be marked.
func (r *run) afterThrottle(err error) bool {
	if !errors.Is(err, ErrThrottled) && !IsThrottleMessage(err.Error()) {
		return false
	}
	if r.aborted() || !r.throttle.ShouldRetry() {
		return false
	}

	delay := r.throttle.RetryDelay()
	r.log.WithFields(logrus.Fields{
		"delay":   delay,
		"retries": r.throttle.State().RetryCount,
	}).Warn("Throttling detected, waiting before retry")

	return r.waitBackoff(delay) == nil
}

// stopAfterThrottle reports an abort that happened during backoff, or the
// failure when retries are exhausted.
func (r *run) stopAfterThrottle(err error, lastFile string) Result {
	if r.aborted() {
		return r.abort(lastFile)
	}
	r.log.WithError(err).Warn("Max throttling retries reached")
	res := r.fail(err)
	res.Throttled = true
	if lastFile != "" {
		res.Path = lastFile
	} else {
		res.Path = r.path
	}
	return res
}

// waitBackoff sleeps for d unless the job is aborted first
func (r *run) waitBackoff(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(r.o.settings.Progress.PausePollInterval)
	defer ticker.Stop()

	for {
		if r.aborted() {
			return ErrAborted
		}
		select {
		case <-timer.C:
			return nil
		case <-r.ctx.Done():
			return ErrAborted
		case <-ticker.C:
		}
	}
}

func (r *run) aborted() bool {
	return r.cb.abortRequested() || r.ctx.Err() != nil
}

func (r *run) currentStage() model.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

// setStage records a transition. notify also reports it through OnStage,
// which is reserved for downloading and merging.
func (r *run) setStage(next model.Stage, notify bool) {
	r.mu.Lock()
	prev := r.stage
	r.stage = next
	r.mu.Unlock()

	if prev == next {
		return
	}
	entry := r.log.WithFields(logrus.Fields{"from": prev, "stage": next})
	if !prev.CanTransition(next) {
		entry.Warn("Unexpected stage transition")
	} else {
		entry.Debug("Stage changed")
	}
	r.cb.transition(next)
	if notify {
		r.cb.stage(next)
	}
}

func (r *run) complete() Result {
	r.setStage(model.StageCompleted, false)
	r.log.WithField("path", r.path).Info("Download completed")
	r.verify()

	return Result{
		OK:         true,
		Path:       r.path,
		Stage:      model.StageCompleted,
		Attempts:   r.attempts,
		Title:      r.title,
		TotalBytes: r.total,
	}
}

// verify logs the sniffed type of the output; a mismatch is only a warning
func (r *run) verify() {
	info, err := platform.InspectArtifact(r.path, r.req.Quality.Extension())
	if err != nil {
		r.log.WithError(err).Warn("Could not inspect output file")
		return
	}
	entry := r.log.WithFields(logrus.Fields{"mime": info.MIME, "size": info.Size})
	if !info.Matches {
		entry.Warn("Output file type does not match the requested format")
		return
	}
	entry.Debug("Output file verified")
}

func (r *run) abort(lastFile string) Result {
	r.setStage(model.StageAborted, false)
	path := lastFile
	if path == "" {
		path = r.path
	}
	r.log.WithField("path", path).Info("Download aborted by user")

	return Result{
		Path:       path,
		Stage:      model.StageAborted,
		Err:        ErrAborted,
		Attempts:   r.attempts,
		Title:      r.title,
		TotalBytes: r.total,
	}
}

func (r *run) fail(err error) Result {
	r.setStage(model.StageFailed, false)
	r.log.WithError(err).Error("Download failed")

	return Result{
		Stage:      model.StageFailed,
		Err:        err,
		Attempts:   r.attempts,
		Title:      r.title,
		TotalBytes: r.total,
	}
}
