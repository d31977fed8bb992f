package download

import (
	"context"
	"sync"

	"github.com/ytget/ytfetch/internal/model"
)

// downloadScript is one scripted Download attempt
type downloadScript func(ctx context.Context, opts model.DownloadOptions, hooks model.Hooks) error

// fakeExtractor replays scripted probe results and download attempts. The
// last download script repeats once the list is exhausted.
type fakeExtractor struct {
	mu sync.Mutex

	info      *model.MediaInfo
	probeErrs []error // one per call, the last repeats; nil succeeds
	downloads []downloadScript

	probeOpts    []model.DownloadOptions
	downloadOpts []model.DownloadOptions
}

func (f *fakeExtractor) Probe(ctx context.Context, url string, opts model.DownloadOptions) (*model.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probeOpts = append(f.probeOpts, opts)
	if len(f.probeErrs) > 0 {
		err := f.probeErrs[0]
		if len(f.probeErrs) > 1 {
			f.probeErrs = f.probeErrs[1:]
		}
		if err != nil {
			return nil, err
		}
	}
	if f.info == nil {
		return &model.MediaInfo{}, nil
	}
	info := *f.info
	return &info, nil
}

func (f *fakeExtractor) Download(ctx context.Context, url string, opts model.DownloadOptions, hooks model.Hooks) error {
	f.mu.Lock()
	f.downloadOpts = append(f.downloadOpts, opts)
	var script downloadScript
	if n := len(f.downloadOpts); len(f.downloads) > 0 {
		if n > len(f.downloads) {
			n = len(f.downloads)
		}
		script = f.downloads[n-1]
	}
	f.mu.Unlock()

	if script == nil {
		return nil
	}
	return script(ctx, opts, hooks)
}

func (f *fakeExtractor) probeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.probeOpts)
}

func (f *fakeExtractor) downloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloadOpts)
}

// recorder collects callback output from the worker goroutine
type recorder struct {
	mu        sync.Mutex
	stages    []model.Stage
	snapshots []Snapshot
	stageCh   chan model.Stage
}

func newRecorder() *recorder {
	return &recorder{stageCh: make(chan model.Stage, 64)}
}

func (r *recorder) onProgress(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) onStage(s model.Stage) {
	r.mu.Lock()
	r.stages = append(r.stages, s)
	r.mu.Unlock()
	select {
	case r.stageCh <- s:
	default:
	}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{OnProgress: r.onProgress, OnStage: r.onStage}
}

func (r *recorder) stageList() []model.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Stage(nil), r.stages...)
}

func (r *recorder) count(stage model.Stage) int {
	n := 0
	for _, s := range r.stageList() {
		if s == stage {
			n++
		}
	}
	return n
}

func (r *recorder) percents() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, s.Percent)
	}
	return out
}
