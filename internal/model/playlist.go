package model

import (
	"time"
)

// PlaylistStatus represents the current status of a playlist
type PlaylistStatus string

const (
	PlaylistStatusParsing     PlaylistStatus = "parsing"
	PlaylistStatusReady       PlaylistStatus = "ready"
	PlaylistStatusDownloading PlaylistStatus = "downloading"
	PlaylistStatusCompleted   PlaylistStatus = "completed"
	PlaylistStatusError       PlaylistStatus = "error"
)

// VideoStatus represents the status of a single video in playlist
type VideoStatus string

const (
	VideoStatusPending     VideoStatus = "pending"
	VideoStatusDownloading VideoStatus = "downloading"
	VideoStatusCompleted   VideoStatus = "completed"
	VideoStatusError       VideoStatus = "error"
	VideoStatusSkipped     VideoStatus = "skipped"
)

// VideoStatusFromStage maps a terminal job stage onto a playlist video status
func VideoStatusFromStage(stage Stage) VideoStatus {
	switch stage {
	case StageCompleted:
		return VideoStatusCompleted
	case StageAborted:
		return VideoStatusSkipped
	case StageFailed:
		return VideoStatusError
	case StageIdle:
		return VideoStatusPending
	}
	return VideoStatusDownloading
}

// PlaylistVideo represents a single video in a playlist
type PlaylistVideo struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Duration   string      `json:"duration"`
	URL        string      `json:"url"`
	Status     VideoStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	OutputPath string      `json:"output_path,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Playlist represents a playlist with its videos
type Playlist struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	URL         string           `json:"url"`
	Videos      []*PlaylistVideo `json:"videos"`
	Status      PlaylistStatus   `json:"status"`
	TotalVideos int              `json:"total_videos"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewPlaylist creates a new playlist instance
func NewPlaylist(url string) *Playlist {
	now := time.Now()
	return &Playlist{
		URL:       url,
		Status:    PlaylistStatusParsing,
		Videos:    make([]*PlaylistVideo, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddVideo adds a video to the playlist
func (p *Playlist) AddVideo(video *PlaylistVideo) {
	p.Videos = append(p.Videos, video)
	p.TotalVideos = len(p.Videos)
	p.UpdatedAt = time.Now()
}

// UpdateStatus updates the playlist status
func (p *Playlist) UpdateStatus(status PlaylistStatus) {
	p.Status = status
	p.UpdatedAt = time.Now()
}

// UpdateVideoResult records the outcome of one video's job
func (p *Playlist) UpdateVideoResult(videoID string, status VideoStatus, outputPath, errMsg string) {
	for _, video := range p.Videos {
		if video.ID == videoID {
			video.Status = status
			video.OutputPath = outputPath
			video.Error = errMsg
			video.UpdatedAt = time.Now()
			break
		}
	}
	p.UpdatedAt = time.Now()
}

// GetPendingVideos returns all videos with pending status
func (p *Playlist) GetPendingVideos() []*PlaylistVideo {
	var pending []*PlaylistVideo
	for _, video := range p.Videos {
		if video.Status == VideoStatusPending {
			pending = append(pending, video)
		}
	}
	return pending
}

// GetCompletedVideos returns all completed videos
func (p *Playlist) GetCompletedVideos() []*PlaylistVideo {
	var completed []*PlaylistVideo
	for _, video := range p.Videos {
		if video.Status == VideoStatusCompleted {
			completed = append(completed, video)
		}
	}
	return completed
}

// GetDownloadProgress returns overall download progress as percentage
func (p *Playlist) GetDownloadProgress() float64 {
	if p.TotalVideos == 0 {
		return 0
	}

	completed := len(p.GetCompletedVideos())
	return float64(completed) / float64(p.TotalVideos) * 100
}

// HasErrors checks if any video has errors
func (p *Playlist) HasErrors() bool {
	for _, video := range p.Videos {
		if video.Status == VideoStatusError {
			return true
		}
	}
	return false
}
