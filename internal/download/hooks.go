package download

import (
	"sync"
	"time"

	"github.com/ytget/ytfetch/internal/model"
)

// attemptState is the hook-visible state of one transfer attempt
type attemptState struct {
	lastFilename   string
	postprocessing bool
	mergingEntered bool
}

// hookSet implements the progress and postprocessing hooks of one attempt.
// The mutex guards state and the aggregator; the pause gate runs unlocked.
type hookSet struct {
	r   *run
	agg *ProgressAggregator

	mu    sync.Mutex
	state attemptState
}

func newHookSet(r *run, agg *ProgressAggregator) *hookSet {
	return &hookSet{r: r, agg: agg}
}

func (h *hookSet) hooks() model.Hooks {
	return model.Hooks{
		Progress:    h.onProgress,
		Postprocess: h.onPostprocess,
	}
}

func (h *hookSet) onProgress(ev model.ProgressEvent) error {
	if err := h.gate(); err != nil {
		return err
	}
	if h.r.aborted() {
		return ErrAborted
	}

	h.mu.Lock()
	if h.state.postprocessing {
		h.mu.Unlock()
		return nil
	}
	if ev.Filename != "" {
		h.state.lastFilename = ev.Filename
	}
	snap, emit := h.agg.Handle(ev)
	h.mu.Unlock()

	if emit {
		h.r.cb.progress(snap)
	}
	return nil
}

func (h *hookSet) onPostprocess(ev model.PostprocessEvent) error {
	if err := h.gate(); err != nil {
		return err
	}
	if ev.Status == model.PostprocessStarted {
		h.enterMerging()
	}
	return nil
}

// enterMerging switches to Merging and notifies the caller exactly once
func (h *hookSet) enterMerging() {
	h.mu.Lock()
	h.state.postprocessing = true
	first := !h.state.mergingEntered
	h.state.mergingEntered = true
	h.mu.Unlock()

	if first {
		h.r.setStage(model.StageMerging, true)
		h.r.log.Info("Merging streams")
	}
}

// gate blocks while pause is requested. Abort is checked on every poll
// and preempts the pause.
func (h *hookSet) gate() error {
	if !h.r.cb.pauseRequested() {
		return nil
	}

	resume := h.r.currentStage()
	h.r.setStage(model.StagePaused, false)
	h.r.log.Info("Download paused")

	poll := h.r.o.settings.Progress.PausePollInterval
	for h.r.cb.pauseRequested() {
		if h.r.aborted() {
			return ErrAborted
		}
		select {
		case <-h.r.ctx.Done():
			return ErrAborted
		case <-time.After(poll):
		}
	}

	h.r.setStage(resume, false)
	h.r.log.Info("Download resumed")
	return nil
}

func (h *hookSet) lastFilename() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.lastFilename
}

// transfer returns the byte accounting of the attempt
func (h *hookSet) transfer() TransferState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.agg.State()
}
