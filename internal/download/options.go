package download

import (
	"fmt"
	"path/filepath"

	"github.com/ytget/ytfetch/internal/config"
	"github.com/ytget/ytfetch/internal/model"
)

// Format selectors
const (
	AudioFormatSelector = "bestaudio/best"
	videoFormatTemplate = "bestvideo[height=%d]+bestaudio/bestvideo[height<=%d]+bestaudio/best"
	videoPostprocessor  = "ffmpeg:-c:v copy -c:a aac -b:a %s"
	outputExtTemplate   = ".%(ext)s"
)

// BuildOptions derives the yt-dlp options for quality from settings. The
// output template is filled in once the destination name is allocated.
func BuildOptions(q model.Quality, s *config.Settings) model.DownloadOptions {
	opts := model.DownloadOptions{
		ConcurrentFragments: s.Network.ConcurrentFragments,
		SocketTimeout:       s.Network.SocketTimeout,
		Retries:             s.Network.Retries,
		FileAccessRetries:   s.Network.FileAccessRetries,
		HTTPChunkSize:       s.Network.HTTPChunkSize,
		NoCheckCertificates: s.Network.NoCheckCertificates,
		NoContinue:          true,
	}

	if q.IsAudio() {
		opts.Format = AudioFormatSelector
		opts.ExtractAudio = true
		opts.AudioFormat = model.ExtAudio
		opts.AudioQuality = s.Audio.Quality
		return opts
	}

	h := q.TargetHeight()
	opts.Format = fmt.Sprintf(videoFormatTemplate, h, h)
	opts.MergeOutputFormat = model.ExtVideo
	opts.PostprocessorArgs = fmt.Sprintf(videoPostprocessor, s.Audio.Bitrate)
	return opts
}

// outputTemplate maps an allocated path "dir/Name.mp4" to "dir/Name.%(ext)s"
func outputTemplate(path string) string {
	base := path[:len(path)-len(filepath.Ext(path))]
	return base + outputExtTemplate
}
