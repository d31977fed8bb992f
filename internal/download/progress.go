package download

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytget/ytfetch/internal/model"
)

// Progress defaults and labels
const (
	DefaultUIUpdateInterval = 300 * time.Millisecond
	DefaultSmoothingWindow  = 10

	// MaxActivePercent is the ceiling while the job is not completed
	MaxActivePercent = 99.9
	// forceEmitPercent bypasses emission throttling near the end
	forceEmitPercent = 99.0

	UnknownETALabel   = "--:--"
	UnknownSpeedLabel = "-- MB/s"
	UnknownSizeLabel  = "---"

	bytesPerMB = 1024 * 1024
)

// Snapshot is one progress report forwarded to the caller
type Snapshot struct {
	Percent float64
	Speed   string
	ETA     string
	Size    string
}

// TransferState is the byte accounting of one attempt
type TransferState struct {
	FinishedBytes     int64
	CurrentFileBytes  int64
	SubFilesCompleted int
}

// ProgressAggregator turns per-sub-file hook events into one continuous
// percentage with a smoothed speed. Not safe for concurrent use.
type ProgressAggregator struct {
	total   int64
	state   TransferState
	samples []float64
	window  int
	limiter *rate.Limiter
	now     func() time.Time
}

// NewProgressAggregator creates an aggregator for a job of total bytes
// (0 if unknown). now may be nil to use the wall clock.
func NewProgressAggregator(total int64, window int, interval time.Duration, now func() time.Time) *ProgressAggregator {
	if window < 1 {
		window = DefaultSmoothingWindow
	}
	if interval <= 0 {
		interval = DefaultUIUpdateInterval
	}
	if now == nil {
		now = time.Now
	}
	return &ProgressAggregator{
		total:   total,
		window:  window,
		samples: make([]float64, 0, window),
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		now:     now,
	}
}

// Handle applies ev and returns the snapshot plus whether it should be
// emitted now. Finished events never emit.
func (a *ProgressAggregator) Handle(ev model.ProgressEvent) (Snapshot, bool) {
	switch ev.Status {
	case model.ProgressDownloading:
		return a.downloading(ev)
	case model.ProgressFinished:
		a.finished(ev)
	}
	return Snapshot{}, false
}

func (a *ProgressAggregator) downloading(ev model.ProgressEvent) (Snapshot, bool) {
	a.state.CurrentFileBytes = ev.DownloadedBytes
	if ev.Speed > 0 {
		a.pushSpeed(ev.Speed)
	}

	percent := a.Percent()
	if percent < forceEmitPercent && !a.limiter.AllowN(a.now(), 1) {
		return Snapshot{}, false
	}

	return Snapshot{
		Percent: percent,
		Speed:   FormatSpeed(a.AverageSpeed()),
		ETA:     FormatETA(ev.ETA, ev.ETAKnown),
		Size:    FormatSize(a.total),
	}, true
}

func (a *ProgressAggregator) finished(ev model.ProgressEvent) {
	if ev.TotalBytes > 0 {
		a.state.FinishedBytes += ev.TotalBytes
	}
	a.state.CurrentFileBytes = 0
	a.state.SubFilesCompleted++
}

func (a *ProgressAggregator) pushSpeed(speed float64) {
	if len(a.samples) == a.window {
		copy(a.samples, a.samples[1:])
		a.samples = a.samples[:a.window-1]
	}
	a.samples = append(a.samples, speed)
}

// Percent returns the aggregated percentage, clamped to MaxActivePercent
func (a *ProgressAggregator) Percent() float64 {
	if a.total <= 0 {
		return 0
	}
	p := 100 * float64(a.state.FinishedBytes+a.state.CurrentFileBytes) / float64(a.total)
	if p > MaxActivePercent {
		return MaxActivePercent
	}
	return p
}

// AverageSpeed is the mean of the sample window in bytes per second
func (a *ProgressAggregator) AverageSpeed() float64 {
	if len(a.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.samples {
		sum += s
	}
	return sum / float64(len(a.samples))
}

// State returns a copy of the transfer accounting
func (a *ProgressAggregator) State() TransferState {
	return a.state
}

// FormatETA renders "--:--", "MM:SS" or "H:MM:SS"
func FormatETA(eta time.Duration, known bool) string {
	if !known {
		return UnknownETALabel
	}
	secs := int(eta.Seconds())
	if secs < 0 {
		secs = 0
	}
	m, s := secs/60, secs%60
	if m >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", m/60, m%60, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatSpeed renders bytes per second as "%.2f MB/s"
func FormatSpeed(bps float64) string {
	if bps <= 0 {
		return UnknownSpeedLabel
	}
	return fmt.Sprintf("%.2f MB/s", bps/bytesPerMB)
}

// FormatSize renders a byte total as "%.1f MB"
func FormatSize(total int64) string {
	if total <= 0 {
		return UnknownSizeLabel
	}
	return fmt.Sprintf("%.1f MB", float64(total)/bytesPerMB)
}
