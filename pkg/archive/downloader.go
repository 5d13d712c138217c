package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/parchmentlabs/folio/pkg/types"
)

const (
	// DefaultMaxFileBytes skips files whose download would dominate the
	// request latency.
	DefaultMaxFileBytes = 50 * 1024 * 1024
	// DefaultMaxFiles bounds how many files of one item contribute text.
	DefaultMaxFiles = 2
	// DefaultMaxChars truncates extracted text to keep segmentation and
	// indexing time bounded.
	DefaultMaxChars = 500_000
	// DefaultDownloadDelay is the minimum spacing between downloads.
	DefaultDownloadDelay = time.Second
)

// DownloaderConfig tunes the text downloader.
type DownloaderConfig struct {
	BaseURL       string
	MaxFileBytes  int64
	MaxFiles      int
	MaxChars      int
	DownloadDelay time.Duration
	Timeout       time.Duration
}

// Downloader fetches an item's file listing and extracts text from its most
// promising files.
type Downloader struct {
	httpClient *http.Client
	cfg        DownloaderConfig
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewDownloader creates a downloader. Zero config fields take defaults.
func NewDownloader(cfg DownloaderConfig, logger *slog.Logger) *Downloader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.DownloadDelay <= 0 {
		cfg.DownloadDelay = DefaultDownloadDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Every(cfg.DownloadDelay), 1),
		logger:     logger,
	}
}

// itemFile is one entry of the item metadata file listing.
type itemFile struct {
	Name   string      `json:"name"`
	Format string      `json:"format"`
	Size   json.Number `json:"size"`
}

func (f itemFile) sizeBytes() int64 {
	n, err := strconv.ParseInt(f.Size.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// extractRank orders candidate files by how reliably they yield clean text.
// Unknown formats rank last and are never downloaded.
func extractRank(f itemFile) int {
	name := strings.ToLower(f.Name)
	format := strings.ToLower(f.Format)
	switch {
	// "Text PDF" and friends need binary extraction this package does not do.
	case strings.HasSuffix(name, ".pdf") || strings.Contains(format, "pdf"):
		return -1
	case strings.HasSuffix(name, "_djvu.txt"):
		return 0
	case strings.HasSuffix(name, ".txt") || strings.Contains(format, "text"):
		return 1
	case strings.HasSuffix(name, ".txt.gz") || strings.HasSuffix(name, ".gz"):
		return 2
	case strings.HasSuffix(name, ".epub") || strings.Contains(format, "epub"):
		return 3
	default:
		return -1
	}
}

// FetchText downloads and extracts the document's full text, truncated to the
// configured character budget. An item with no extractable files yields an
// empty string and no error.
func (d *Downloader) FetchText(ctx context.Context, doc types.Document) (string, error) {
	files, err := d.listFiles(ctx, doc.Identifier)
	if err != nil {
		return "", err
	}

	candidates := files[:0]
	for _, f := range files {
		if extractRank(f) < 0 {
			continue
		}
		if f.sizeBytes() > d.cfg.MaxFileBytes {
			d.logger.Debug("skipping oversized file", "item", doc.Identifier, "file", f.Name, "size", f.sizeBytes())
			continue
		}
		candidates = append(candidates, f)
	}
	// Best extraction rank first, smaller files first within a rank.
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := extractRank(candidates[i]), extractRank(candidates[j])
		if ri != rj {
			return ri < rj
		}
		return candidates[i].sizeBytes() < candidates[j].sizeBytes()
	})

	var sb strings.Builder
	used := 0
	for _, f := range candidates {
		if used >= d.cfg.MaxFiles || sb.Len() >= d.cfg.MaxChars {
			break
		}
		text := d.fetchFile(ctx, doc.Identifier, f)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
		used++
	}

	text := strings.TrimSpace(sb.String())
	if len(text) > d.cfg.MaxChars {
		text = text[:d.cfg.MaxChars]
	}
	d.logger.Debug("archive text extracted", "item", doc.Identifier, "files", used, "chars", len(text))
	return text, nil
}

func (d *Downloader) listFiles(ctx context.Context, identifier string) ([]itemFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL+"/metadata/"+identifier, nil)
	if err != nil {
		return nil, fmt.Errorf("archive metadata request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive metadata %s: %w", identifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive metadata %s: unexpected status %d", identifier, resp.StatusCode)
	}

	var metadata struct {
		Files []itemFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("archive metadata %s: decode: %w", identifier, err)
	}
	return metadata.Files, nil
}

// fetchFile downloads one file and extracts its text. Failures are logged
// and yield an empty string so the next candidate gets a chance.
func (d *Downloader) fetchFile(ctx context.Context, identifier string, f itemFile) string {
	if err := d.limiter.Wait(ctx); err != nil {
		return ""
	}

	url := d.cfg.BaseURL + "/download/" + identifier + "/" + f.Name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Debug("download failed", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Debug("download failed", "url", url, "status", resp.StatusCode)
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxFileBytes))
	if err != nil {
		d.logger.Debug("download read failed", "url", url, "error", err)
		return ""
	}

	text, err := extractText(f.Name, data)
	if err != nil {
		d.logger.Debug("extraction failed", "file", f.Name, "error", err)
		return ""
	}
	return text
}

// extractText converts file bytes into plain text based on the file name.
func extractText(name string, data []byte) (string, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("gzip %s: %w", name, err)
		}
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("gzip %s: %w", name, err)
		}
		return cleanText(raw), nil
	case strings.HasSuffix(lower, ".epub"):
		return ExtractEPUB(data)
	default:
		return cleanText(data), nil
	}
}

// cleanText normalizes raw bytes into valid UTF-8 text. OCR dumps regularly
// mix encodings; invalid sequences are dropped rather than rejected.
func cleanText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
