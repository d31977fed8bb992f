package download

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ytget/ytfetch/internal/model"
)

// MetadataProbe queries total size and title before a transfer
type MetadataProbe struct {
	extractor Extractor
	throttle  *ThrottleManager
	log       logrus.FieldLogger
}

// NewMetadataProbe creates a probe. throttle may be nil.
func NewMetadataProbe(extractor Extractor, throttle *ThrottleManager, log logrus.FieldLogger) *MetadataProbe {
	return &MetadataProbe{extractor: extractor, throttle: throttle, log: log}
}

// Probe returns the expected total bytes and the title. A throttling error
// marks the manager and returns ErrThrottled; any other failure yields the
// soft result (0, model.UnknownTitle, nil).
func (p *MetadataProbe) Probe(ctx context.Context, url string, opts model.DownloadOptions) (int64, string, error) {
	info, err := p.extractor.Probe(ctx, url, opts.ForProbe())
	if err != nil {
		if IsThrottleMessage(err.Error()) {
			if p.throttle != nil {
				p.throttle.MarkThrottled()
			}
			return 0, "", fmt.Errorf("%w: %v", ErrThrottled, err)
		}
		p.log.WithError(err).Warn("Metadata probe failed, continuing without size")
		return 0, model.UnknownTitle, nil
	}

	title := info.Title
	if title == "" {
		title = model.UnknownTitle
	}
	return TotalSize(info), title, nil
}

// TotalSize sums the requested formats (filesize, else filesize_approx) or
// falls back to the top-level size. Unknown sizes count as 0.
func TotalSize(info *model.MediaInfo) int64 {
	if info == nil {
		return 0
	}
	if len(info.RequestedFormats) > 0 {
		var total float64
		for _, f := range info.RequestedFormats {
			total += sizeOf(f.Filesize, f.FilesizeApprox)
		}
		return int64(total)
	}
	return int64(sizeOf(info.Filesize, info.FilesizeApprox))
}

func sizeOf(exact, approx float64) float64 {
	if exact > 0 {
		return exact
	}
	if approx > 0 {
		return approx
	}
	return 0
}
