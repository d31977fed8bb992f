// Package platform contains OS/platform integration and external tooling glue:
// output naming and cleanup, filesystem helpers, the yt-dlp extractor adapter,
// playlist expansion, the single-job lock and OS folder reveal.
package platform
