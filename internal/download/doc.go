// Package download implements the download orchestration engine on top of an
// Extractor (yt-dlp via github.com/lrstanley/go-ytdlp in production). It
// probes metadata, drives the transfer with pause/abort hooks, aggregates
// progress across the video and audio sub-files and retries rate-limited
// attempts with capped exponential backoff.
package download
