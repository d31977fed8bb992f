package model

import "time"

// DownloadOptions is the extractor-neutral description of one yt-dlp invocation
type DownloadOptions struct {
	Format            string
	MergeOutputFormat string
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	PostprocessorArgs string
	OutputTemplate    string

	ConcurrentFragments int
	SocketTimeout       time.Duration
	Retries             int
	FileAccessRetries   int
	HTTPChunkSize       string

	NoContinue          bool
	NoCheckCertificates bool
	Simulate            bool
}

// ForProbe returns a copy suited for a simulate-only metadata query:
// simulation forced on, fragment concurrency stripped and no output template.
func (o DownloadOptions) ForProbe() DownloadOptions {
	p := o
	p.Simulate = true
	p.ConcurrentFragments = 0
	p.OutputTemplate = ""
	return p
}

// FormatInfo is one requested format of a probe result
type FormatInfo struct {
	FormatID       string
	Ext            string
	Filesize       float64
	FilesizeApprox float64
}

// MediaInfo is the subset of a yt-dlp info document the core consumes
type MediaInfo struct {
	ID               string
	Title            string
	Filesize         float64
	FilesizeApprox   float64
	RequestedFormats []FormatInfo
}

// ProgressStatus is the status carried by a progress hook event
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
)

// ProgressEvent is one progress hook invocation for the active sub-file
type ProgressEvent struct {
	Status          ProgressStatus
	DownloadedBytes int64
	TotalBytes      int64   // 0 if unknown
	Speed           float64 // bytes per second, 0 if unknown
	ETA             time.Duration
	ETAKnown        bool
	Filename        string
}

// PostprocessStatus is the status carried by a postprocessing hook event
type PostprocessStatus string

const (
	PostprocessStarted  PostprocessStatus = "started"
	PostprocessFinished PostprocessStatus = "finished"
)

// PostprocessEvent is one postprocessing hook invocation
type PostprocessEvent struct {
	Status        PostprocessStatus
	Postprocessor string
	Filename      string
}

// Hooks receive extractor events during a real download. A non-nil error
// returned from a hook stops the transfer and is returned by the extractor.
type Hooks struct {
	Progress    func(ProgressEvent) error
	Postprocess func(PostprocessEvent) error
}
