package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// QualityKind is the family of a quality selector
type QualityKind string

const (
	QualityHeight QualityKind = "height"
	Quality4K     QualityKind = "4k"
	QualityHD     QualityKind = "hd"
	QualityAudio  QualityKind = "audio"
)

// Well-known heights and the fallback used when a selector carries none
const (
	Height4K      = 2160
	HeightHD      = 1080
	DefaultHeight = HeightHD
)

// Output container extensions
const (
	ExtAudio = "mp3"
	ExtVideo = "mp4"
)

var heightPattern = regexp.MustCompile(`\d{3,4}`)

// Quality is the user's chosen target: a specific height, a named tier, or audio only
type Quality struct {
	Kind   QualityKind
	Height int
}

// ParseQuality parses selectors such as "720", "1080p", "4k", "hd" or "audio".
// Any selector mentioning audio is audio-only; a selector without a usable
// height falls back to DefaultHeight.
func ParseQuality(s string) Quality {
	key := strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(key, "audio") {
		return Quality{Kind: QualityAudio}
	}
	if nums := heightPattern.FindAllString(key, -1); len(nums) > 0 {
		h, err := strconv.Atoi(nums[0])
		if err == nil && h > 0 {
			return Quality{Kind: QualityHeight, Height: h}
		}
	}
	switch key {
	case "4k":
		return Quality{Kind: Quality4K, Height: Height4K}
	case "hd":
		return Quality{Kind: QualityHD, Height: HeightHD}
	}
	return Quality{Kind: QualityHeight, Height: DefaultHeight}
}

// IsAudio returns true for audio-only selections
func (q Quality) IsAudio() bool {
	return q.Kind == QualityAudio
}

// TargetHeight returns the requested video height, 0 for audio
func (q Quality) TargetHeight() int {
	if q.IsAudio() {
		return 0
	}
	if q.Height <= 0 {
		return DefaultHeight
	}
	return q.Height
}

// Extension returns the final container extension for this selection
func (q Quality) Extension() string {
	if q.IsAudio() {
		return ExtAudio
	}
	return ExtVideo
}

// String returns a display label, e.g. "720p", "4k" or "audio"
func (q Quality) String() string {
	switch q.Kind {
	case QualityAudio:
		return string(QualityAudio)
	case Quality4K, QualityHD:
		return string(q.Kind)
	}
	return fmt.Sprintf("%dp", q.TargetHeight())
}

// DownloadRequest is one logical download job. It is immutable for the
// lifetime of an attempt; a retry re-issues an equivalent request.
type DownloadRequest struct {
	URL     string
	Quality Quality
}
