package archive

import (
	"log/slog"
	"time"
)

// Source bundles search and download into one acquisition collaborator.
type Source struct {
	*Searcher
	*Downloader
}

// Config tunes the combined source.
type Config struct {
	BaseURL       string
	Rows          int
	SearchTimeout time.Duration
	Download      DownloaderConfig
}

// NewSource creates a combined searcher and downloader against one base URL.
func NewSource(cfg Config, logger *slog.Logger) *Source {
	download := cfg.Download
	if download.BaseURL == "" {
		download.BaseURL = cfg.BaseURL
	}
	return &Source{
		Searcher:   NewSearcher(cfg.BaseURL, cfg.Rows, cfg.SearchTimeout, logger),
		Downloader: NewDownloader(download, logger),
	}
}
