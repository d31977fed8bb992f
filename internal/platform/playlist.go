package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	ytplaylist "github.com/ytget/ytdlp/v2"
	"github.com/ytget/ytfetch/internal/model"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// Default values
const (
	DefaultDuration     = "Unknown"
	DefaultPlaylistName = "Unknown Playlist"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Playlist title constants
const (
	MinPrefixLength = 10
	PlaylistSuffix  = " Playlist"
)

// PlaylistItem is one entry returned by a playlist source
type PlaylistItem struct {
	VideoID string
	Title   string
}

// PlaylistSource lists the items of a playlist by ID
type PlaylistSource func(ctx context.Context, playlistID string) ([]PlaylistItem, error)

// PlaylistParser expands playlist URLs into video entries
type PlaylistParser struct {
	timeout time.Duration
	source  PlaylistSource
}

// NewPlaylistParser creates a parser backed by github.com/ytget/ytdlp/v2
func NewPlaylistParser() *PlaylistParser {
	return &PlaylistParser{
		timeout: DefaultParseTimeout,
		source:  fetchPlaylistItems,
	}
}

// NewPlaylistParserFrom creates a parser reading items from source
func NewPlaylistParserFrom(source PlaylistSource) *PlaylistParser {
	return &PlaylistParser{
		timeout: DefaultParseTimeout,
		source:  source,
	}
}

// SetTimeout sets the timeout for parsing operations
func (p *PlaylistParser) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// fetchPlaylistItems uses the library to fetch all playlist items
func fetchPlaylistItems(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	d := ytplaylist.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]PlaylistItem, 0, len(items))
	for _, it := range items {
		out = append(out, PlaylistItem{VideoID: it.VideoID, Title: it.Title})
	}
	return out, nil
}

// ParsePlaylist parses a playlist URL and returns its videos in order
func (p *PlaylistParser) ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error) {
	if !p.isValidPlaylistURL(url) {
		return nil, fmt.Errorf("invalid playlist URL: %s", url)
	}

	playlistID := p.extractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", url)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	items, err := p.source(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	playlist := model.NewPlaylist(url)
	playlist.ID = playlistID
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		now := time.Now()
		playlist.AddVideo(&model.PlaylistVideo{
			ID:        it.VideoID,
			Title:     it.Title,
			Duration:  DefaultDuration,
			URL:       fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
			Status:    model.VideoStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	playlist.Title = p.extractPlaylistTitle(playlist.Videos)
	playlist.UpdateStatus(model.PlaylistStatusReady)

	return playlist, nil
}

// IsPlaylistURL reports whether url carries a playlist parameter
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistParam)
}

// isValidPlaylistURL checks if the URL is a valid YouTube playlist URL
func (p *PlaylistParser) isValidPlaylistURL(url string) bool {
	return IsPlaylistURL(url)
}

// extractPlaylistID extracts the playlist ID from various URL formats
func (p *PlaylistParser) extractPlaylistID(url string) string {
	if strings.Contains(url, PlaylistParam) {
		parts := strings.Split(url, PlaylistParam)
		if len(parts) > 1 {
			playlistPart := parts[1]
			if strings.Contains(playlistPart, ParamSeparator) {
				playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
			}
			return playlistPart
		}
	}
	return ""
}

// extractPlaylistTitle generates a title for the playlist based on videos
func (p *PlaylistParser) extractPlaylistTitle(videos []*model.PlaylistVideo) string {
	if len(videos) == 0 {
		return DefaultPlaylistName
	}
	if len(videos) > 1 {
		firstTitle := videos[0].Title
		commonPrefix := p.findCommonPrefix(firstTitle, videos[1].Title)
		if len(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}
	return videos[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings
func (p *PlaylistParser) findCommonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}
