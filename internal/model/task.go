package model

import (
	"strings"
	"time"
)

// DownloadTask is the caller-facing record of one download job
type DownloadTask struct {
	ID         string
	URL        string
	Quality    Quality
	Stage      Stage
	Percent    float64   // 0 to 100
	Speed      string    // smoothed speed label (e.g., "1.25 MB/s")
	ETA        string    // ETA label (e.g., "01:30"), "--:--" if unknown
	Size       string    // total size label (e.g., "84.2 MB"), "---" if unknown
	Title      string    // media title
	OutputPath string    // allocated or final output path
	Attempts   int       // number of attempts including throttled retries
	Throttled  bool      // true if the job ended because retries were exhausted
	LastError  string    // last error message if any
	StartedAt  time.Time // when the job started
	FinishedAt time.Time // when the job reached a terminal stage
}

// UpdateProgress copies one emitted progress snapshot into the task
func (dt *DownloadTask) UpdateProgress(percent float64, speed, eta, size string) {
	dt.Percent = percent
	dt.Speed = speed
	dt.ETA = eta
	dt.Size = size
}

// Elapsed returns how long the job has been running, or ran if finished
func (dt *DownloadTask) Elapsed() time.Duration {
	if dt.StartedAt.IsZero() {
		return 0
	}
	if dt.FinishedAt.IsZero() {
		return time.Since(dt.StartedAt)
	}
	return dt.FinishedAt.Sub(dt.StartedAt)
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	// First priority: media title (non-URL)
	if dt.Title != "" && dt.Title != UnknownTitle && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	// Second priority: filename from OutputPath
	if dt.OutputPath != "" {
		// Extract just the filename without path (support both / and \ separators)
		parts := strings.FieldsFunc(dt.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return dt.URL
}

// UnknownTitle is reported when metadata could not be retrieved
const UnknownTitle = "Unknown"
