package platform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"

	"github.com/ytget/ytfetch/internal/model"
)

// Extractor defaults
const (
	DefaultProgressFrequency = 100 * time.Millisecond
	maxErrorDetailLines      = 3
)

// Postprocessor hook statuses. Download statuses use the go-ytdlp constants.
const (
	ppStatusStarted    = "started"
	ppStatusProcessing = "processing"
)

// postprocessProgressTemplate routes postprocessor hook dicts through the
// same "progress:" line parser ProgressFunc installs for downloads. The
// builder keeps a single template, so this one is passed as a raw argument.
const postprocessProgressTemplate = "postprocess:progress:%()j"

// YTDLPExtractor drives the yt-dlp executable through github.com/lrstanley/go-ytdlp
type YTDLPExtractor struct {
	frequency time.Duration
	log       logrus.FieldLogger
}

// NewYTDLPExtractor creates an extractor that logs to log
func NewYTDLPExtractor(log logrus.FieldLogger) *YTDLPExtractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &YTDLPExtractor{
		frequency: DefaultProgressFrequency,
		log:       log,
	}
}

// SetProgressFrequency sets how often yt-dlp progress lines are delivered
func (e *YTDLPExtractor) SetProgressFrequency(d time.Duration) {
	if d > 0 {
		e.frequency = d
	}
}

// Probe runs a simulate-only query and maps the extracted info
func (e *YTDLPExtractor) Probe(ctx context.Context, url string, opts model.DownloadOptions) (*model.MediaInfo, error) {
	e.log.WithField("url", url).Debug("Probing media metadata")

	res, err := newCommand(opts.ForProbe()).DumpJSON().Run(ctx, url)
	if err != nil {
		return nil, wrapRunError("probe", res, err)
	}
	return mediaInfoFromResult(res)
}

// Download runs the real transfer. Hook errors are stop conditions: the
// yt-dlp process is cancelled and the first hook error is returned.
func (e *YTDLPExtractor) Download(ctx context.Context, url string, opts model.DownloadOptions, hooks model.Hooks) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr := newProgressTranslator(hooks, time.Now)

	dl := newCommand(opts).
		ProgressFunc(e.frequency, func(update ytdlp.ProgressUpdate) {
			view := progressView{
				Status:     string(update.Status),
				Downloaded: int64(update.DownloadedBytes),
				Total:      int64(update.TotalBytes),
				Filename:   update.Filename,
				ETA:        update.ETA(),
			}
			if err := tr.handle(view); err != nil {
				cancel()
			}
		})

	res, err := dl.Run(ctx, "--progress-template", postprocessProgressTemplate, url)

	if hookErr := tr.Err(); hookErr != nil {
		return hookErr
	}
	if err != nil {
		return wrapRunError("download", res, err)
	}
	return nil
}

// newCommand translates options into a yt-dlp command
func newCommand(opts model.DownloadOptions) *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		NoPlaylist()

	if opts.Format != "" {
		cmd.Format(opts.Format)
	}
	if opts.ExtractAudio {
		cmd.ExtractAudio()
		if opts.AudioFormat != "" {
			cmd.AudioFormat(opts.AudioFormat)
		}
		if opts.AudioQuality != "" {
			cmd.AudioQuality(opts.AudioQuality)
		}
	}
	if opts.MergeOutputFormat != "" {
		cmd.MergeOutputFormat(opts.MergeOutputFormat)
	}
	if opts.PostprocessorArgs != "" {
		cmd.PostProcessorArgs(opts.PostprocessorArgs)
	}
	if opts.OutputTemplate != "" {
		cmd.Output(opts.OutputTemplate)
	}
	if opts.ConcurrentFragments > 0 {
		cmd.ConcurrentFragments(opts.ConcurrentFragments)
	}
	if opts.SocketTimeout > 0 {
		cmd.SocketTimeout(opts.SocketTimeout.Seconds())
	}
	if opts.Retries > 0 {
		retries := strconv.Itoa(opts.Retries)
		cmd.Retries(retries).FragmentRetries(retries)
	}
	if opts.FileAccessRetries > 0 {
		cmd.FileAccessRetries(strconv.Itoa(opts.FileAccessRetries))
	}
	if opts.HTTPChunkSize != "" {
		cmd.HTTPChunkSize(opts.HTTPChunkSize)
	}
	if opts.NoContinue {
		cmd.NoContinue().Part()
	}
	if opts.NoCheckCertificates {
		cmd.NoCheckCertificates()
	}
	if opts.Simulate {
		cmd.Simulate()
	}
	return cmd
}

// mediaInfoFromResult maps the first extracted info of a --dump-json run
func mediaInfoFromResult(res *ytdlp.Result) (*model.MediaInfo, error) {
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp info: %w", err)
	}
	if len(infos) == 0 {
		return nil, errors.New("yt-dlp returned no info document")
	}

	info := infos[0]
	out := &model.MediaInfo{ID: info.ID}
	if info.Title != nil {
		out.Title = *info.Title
	}
	if info.ExtractedFormat != nil {
		out.Filesize, out.FilesizeApprox = formatSizes(info.ExtractedFormat)
	}
	for _, f := range info.RequestedFormats {
		if f == nil {
			continue
		}
		fi := model.FormatInfo{}
		if f.FormatID != nil {
			fi.FormatID = *f.FormatID
		}
		if f.Extension != nil {
			fi.Ext = *f.Extension
		}
		fi.Filesize, fi.FilesizeApprox = formatSizes(f)
		out.RequestedFormats = append(out.RequestedFormats, fi)
	}
	return out, nil
}

func formatSizes(f *ytdlp.ExtractedFormat) (exact, approx float64) {
	if f.FileSize != nil {
		exact = float64(*f.FileSize)
	}
	if f.FileSizeApprox != nil {
		approx = float64(*f.FileSizeApprox)
	}
	return exact, approx
}

// wrapRunError keeps the tail of stderr in the error so callers can classify it
func wrapRunError(op string, res *ytdlp.Result, err error) error {
	if res == nil || strings.TrimSpace(res.Stderr) == "" {
		return fmt.Errorf("yt-dlp %s failed: %w", op, err)
	}
	return fmt.Errorf("yt-dlp %s failed: %w: %s", op, err, stderrTail(res.Stderr, maxErrorDetailLines))
}

// stderrTail returns the last n non-empty lines of s joined by "; "
func stderrTail(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}

// progressView is the part of a yt-dlp progress update the translator uses
type progressView struct {
	Status     string
	Downloaded int64
	Total      int64
	Filename   string
	ETA        time.Duration
}

type speedSample struct {
	filename string
	bytes    int64
	at       time.Time
}

// progressTranslator turns yt-dlp progress lines into hook events. It
// derives instantaneous speed from consecutive samples, forwards a single
// "finished" per sub-file, switches to postprocessor events once a
// postprocessor has started and latches the first hook error.
type progressTranslator struct {
	mu             sync.Mutex
	hooks          model.Hooks
	now            func() time.Time
	last           speedSample
	finished       map[string]bool
	postprocessing bool
	err            error
}

func newProgressTranslator(hooks model.Hooks, now func() time.Time) *progressTranslator {
	return &progressTranslator{
		hooks:    hooks,
		now:      now,
		finished: make(map[string]bool),
	}
}

// Err returns the first error returned by a hook
func (t *progressTranslator) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *progressTranslator) handle(v progressView) error {
	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return err
	}

	var fire func() error
	switch {
	case v.Status == ppStatusStarted || v.Status == ppStatusProcessing:
		t.postprocessing = true
		ev := model.PostprocessEvent{Status: model.PostprocessStarted, Filename: v.Filename}
		if t.hooks.Postprocess != nil {
			fire = func() error { return t.hooks.Postprocess(ev) }
		}
	case t.postprocessing && v.Status == string(ytdlp.ProgressStatusFinished):
		// postprocessor hooks reuse "finished"; downloads are over by now
		ev := model.PostprocessEvent{Status: model.PostprocessFinished, Filename: v.Filename}
		if t.hooks.Postprocess != nil {
			fire = func() error { return t.hooks.Postprocess(ev) }
		}
	case v.Status == string(ytdlp.ProgressStatusDownloading):
		ev := model.ProgressEvent{
			Status:          model.ProgressDownloading,
			DownloadedBytes: v.Downloaded,
			TotalBytes:      v.Total,
			Speed:           t.speed(v),
			ETA:             v.ETA,
			ETAKnown:        v.ETA > 0,
			Filename:        v.Filename,
		}
		if t.hooks.Progress != nil {
			fire = func() error { return t.hooks.Progress(ev) }
		}
	case v.Status == string(ytdlp.ProgressStatusFinished):
		if t.finished[v.Filename] {
			break
		}
		t.finished[v.Filename] = true
		total := v.Total
		if total <= 0 {
			total = v.Downloaded
		}
		ev := model.ProgressEvent{
			Status:          model.ProgressFinished,
			DownloadedBytes: v.Downloaded,
			TotalBytes:      total,
			Filename:        v.Filename,
		}
		if t.hooks.Progress != nil {
			fire = func() error { return t.hooks.Progress(ev) }
		}
	}
	t.mu.Unlock()

	if fire == nil {
		return nil
	}
	// hooks may block (pause gate), so they run outside the lock
	if err := fire(); err != nil {
		t.mu.Lock()
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
		return err
	}
	return nil
}

// speed must be called with t.mu held
func (t *progressTranslator) speed(v progressView) float64 {
	now := t.now()
	prev := t.last
	t.last = speedSample{filename: v.Filename, bytes: v.Downloaded, at: now}

	if prev.at.IsZero() || prev.filename != v.Filename {
		return 0
	}
	elapsed := now.Sub(prev.at).Seconds()
	delta := v.Downloaded - prev.bytes
	if elapsed <= 0 || delta < 0 {
		return 0
	}
	return float64(delta) / elapsed
}
