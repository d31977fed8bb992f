package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Application directory and file names
const (
	AppDirName       = "ytfetch"
	SettingsFileName = "settings.json"
)

// Default values
const (
	DefaultDownloadDirName = "downloads"
	DefaultQuality         = "1080"
	DefaultLogLevel        = "info"

	DefaultThrottleRetryDelay        = 5 * time.Second
	DefaultThrottleBackoffMultiplier = 2.0
	DefaultThrottleMaxRetries        = 3

	DefaultUIUpdateInterval  = 300 * time.Millisecond
	DefaultSmoothingWindow   = 10
	DefaultPausePollInterval = 200 * time.Millisecond

	DefaultConcurrentFragments = 4
	DefaultSocketTimeout       = 15 * time.Second
	DefaultRetries             = 10
	DefaultFileAccessRetries   = 5
	DefaultHTTPChunkSize       = "10M"

	DefaultAudioQuality = "192"
	DefaultAudioBitrate = "192k"
)

// Limits applied by the clamping setters
const (
	MaxThrottleRetries     = 10
	MinSmoothingWindow     = 1
	MaxSmoothingWindow     = 100
	MinConcurrentFragments = 1
	MaxConcurrentFragments = 16
	MinUIUpdateInterval    = 50 * time.Millisecond
	MinPausePollInterval   = 10 * time.Millisecond
)

// Settings holds all user-configurable settings organized by category.
type Settings struct {
	General  GeneralSettings  `json:"general"`
	Throttle ThrottleSettings `json:"throttle"`
	Progress ProgressSettings `json:"progress"`
	Network  NetworkSettings  `json:"network"`
	Audio    AudioSettings    `json:"audio"`
}

// GeneralSettings contains output and logging behavior.
type GeneralSettings struct {
	DownloadDir string `json:"download_dir"` // relative paths resolve against the working directory
	Quality     string `json:"quality"`
	LogLevel    string `json:"log_level"`
}

// ThrottleSettings controls the rate-limit backoff policy.
type ThrottleSettings struct {
	RetryDelay        time.Duration `json:"retry_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	MaxRetries        int           `json:"max_retries"`
}

// ProgressSettings controls progress emission and the pause gate.
type ProgressSettings struct {
	UIUpdateInterval  time.Duration `json:"ui_update_interval"`
	SmoothingWindow   int           `json:"smoothing_window"`
	PausePollInterval time.Duration `json:"pause_poll_interval"`
}

// NetworkSettings is forwarded to yt-dlp.
type NetworkSettings struct {
	ConcurrentFragments int           `json:"concurrent_fragments"`
	SocketTimeout       time.Duration `json:"socket_timeout"`
	Retries             int           `json:"retries"`
	FileAccessRetries   int           `json:"file_access_retries"`
	HTTPChunkSize       string        `json:"http_chunk_size"`
	NoCheckCertificates bool          `json:"no_check_certificates"`
}

// AudioSettings controls audio extraction and re-encoding.
type AudioSettings struct {
	Quality string `json:"quality"` // mp3 quality for audio-only jobs
	Bitrate string `json:"bitrate"` // aac bitrate for merged video jobs
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			DownloadDir: DefaultDownloadDirName,
			Quality:     DefaultQuality,
			LogLevel:    DefaultLogLevel,
		},
		Throttle: ThrottleSettings{
			RetryDelay:        DefaultThrottleRetryDelay,
			BackoffMultiplier: DefaultThrottleBackoffMultiplier,
			MaxRetries:        DefaultThrottleMaxRetries,
		},
		Progress: ProgressSettings{
			UIUpdateInterval:  DefaultUIUpdateInterval,
			SmoothingWindow:   DefaultSmoothingWindow,
			PausePollInterval: DefaultPausePollInterval,
		},
		Network: NetworkSettings{
			ConcurrentFragments: DefaultConcurrentFragments,
			SocketTimeout:       DefaultSocketTimeout,
			Retries:             DefaultRetries,
			FileAccessRetries:   DefaultFileAccessRetries,
			HTTPChunkSize:       DefaultHTTPChunkSize,
			NoCheckCertificates: true,
		},
		Audio: AudioSettings{
			Quality: DefaultAudioQuality,
			Bitrate: DefaultAudioBitrate,
		},
	}
}

// GetConfigDir returns the directory holding the settings file.
func GetConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppDirName)
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetConfigDir(), SettingsFileName)
}

// LoadSettings loads settings from the default path.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads settings from path. Returns defaults if the file doesn't exist.
func LoadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	settings.Normalize()

	return settings, nil
}

// SaveSettingsTo saves settings to path atomically.
func SaveSettingsTo(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// Normalize replaces empty or out-of-range values with defaults and limits.
func (s *Settings) Normalize() {
	if s.General.DownloadDir == "" {
		s.General.DownloadDir = DefaultDownloadDirName
	}
	if s.General.Quality == "" {
		s.General.Quality = DefaultQuality
	}
	if s.General.LogLevel == "" {
		s.General.LogLevel = DefaultLogLevel
	}
	if s.Throttle.RetryDelay <= 0 {
		s.Throttle.RetryDelay = DefaultThrottleRetryDelay
	}
	if s.Throttle.BackoffMultiplier < 1 {
		s.Throttle.BackoffMultiplier = DefaultThrottleBackoffMultiplier
	}
	s.SetMaxRetries(s.Throttle.MaxRetries)
	s.SetSmoothingWindow(s.Progress.SmoothingWindow)
	s.SetUIUpdateInterval(s.Progress.UIUpdateInterval)
	if s.Progress.PausePollInterval < MinPausePollInterval {
		s.Progress.PausePollInterval = DefaultPausePollInterval
	}
	s.SetConcurrentFragments(s.Network.ConcurrentFragments)
	if s.Network.SocketTimeout <= 0 {
		s.Network.SocketTimeout = DefaultSocketTimeout
	}
	if s.Network.Retries < 0 {
		s.Network.Retries = DefaultRetries
	}
	if s.Network.FileAccessRetries < 0 {
		s.Network.FileAccessRetries = DefaultFileAccessRetries
	}
	if s.Audio.Quality == "" {
		s.Audio.Quality = DefaultAudioQuality
	}
	if s.Audio.Bitrate == "" {
		s.Audio.Bitrate = DefaultAudioBitrate
	}
}

// SetMaxRetries sets the throttle retry ceiling
func (s *Settings) SetMaxRetries(count int) {
	if count < 0 {
		count = 0
	}
	if count > MaxThrottleRetries {
		count = MaxThrottleRetries
	}
	s.Throttle.MaxRetries = count
}

// SetSmoothingWindow sets the speed sample window capacity
func (s *Settings) SetSmoothingWindow(size int) {
	if size < MinSmoothingWindow {
		size = DefaultSmoothingWindow
	}
	if size > MaxSmoothingWindow {
		size = MaxSmoothingWindow
	}
	s.Progress.SmoothingWindow = size
}

// SetUIUpdateInterval sets the minimum interval between progress emissions
func (s *Settings) SetUIUpdateInterval(interval time.Duration) {
	if interval < MinUIUpdateInterval {
		interval = DefaultUIUpdateInterval
	}
	s.Progress.UIUpdateInterval = interval
}

// SetConcurrentFragments sets the number of fragments yt-dlp fetches in parallel
func (s *Settings) SetConcurrentFragments(count int) {
	if count < MinConcurrentFragments {
		count = MinConcurrentFragments
	}
	if count > MaxConcurrentFragments {
		count = MaxConcurrentFragments
	}
	s.Network.ConcurrentFragments = count
}

// ResolveDownloadDir returns the absolute download directory. Relative
// settings are resolved against the current working directory.
func (s *Settings) ResolveDownloadDir() (string, error) {
	dir := s.General.DownloadDir
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
