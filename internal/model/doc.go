// Package model defines domain data structures shared by the download core,
// the yt-dlp adapters and the CLI: requests and quality selectors, the
// options handed to the extractor, hook events, job stages and job records.
package model
