package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parchmentlabs/folio/pkg/types"
)

const (
	// DefaultBaseURL is the public Internet Archive endpoint.
	DefaultBaseURL = "https://archive.org"
	// DefaultRows is how many candidate records a search requests.
	DefaultRows = 5

	searchPath = "/advancedsearch.php"
)

// Searcher queries the archive's metadata search for candidate documents.
type Searcher struct {
	httpClient *http.Client
	baseURL    string
	rows       int
	logger     *slog.Logger
}

// NewSearcher creates a metadata searcher. baseURL and rows fall back to
// defaults when zero.
func NewSearcher(baseURL string, rows int, timeout time.Duration, logger *slog.Logger) *Searcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		rows:       rows,
		logger:     logger,
	}
}

// multiString tolerates metadata fields that arrive as either a string or a
// list of strings.
type multiString string

func (m *multiString) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = multiString(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = multiString(strings.Join(many, "; "))
	return nil
}

type searchDoc struct {
	Identifier  string      `json:"identifier"`
	Title       multiString `json:"title"`
	Creator     multiString `json:"creator"`
	Year        json.Number `json:"year"`
	Description multiString `json:"description"`
}

type searchResponse struct {
	Response struct {
		Docs []searchDoc `json:"docs"`
	} `json:"response"`
}

// Find runs the structured boolean query and returns candidate documents.
// The caller treats any error the same as an empty result list.
func (s *Searcher) Find(ctx context.Context, query string, limit int) ([]types.Document, error) {
	if limit <= 0 {
		limit = s.rows
	}

	params := url.Values{}
	params.Set("q", query)
	params.Add("fl[]", "identifier")
	params.Add("fl[]", "title")
	params.Add("fl[]", "creator")
	params.Add("fl[]", "year")
	params.Add("fl[]", "description")
	params.Set("rows", fmt.Sprintf("%d", limit))
	params.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("archive search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive search: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("archive search: decode response: %w", err)
	}

	docs := make([]types.Document, 0, len(parsed.Response.Docs))
	for _, d := range parsed.Response.Docs {
		if d.Identifier == "" {
			continue
		}
		docs = append(docs, types.Document{
			Identifier:  d.Identifier,
			Title:       string(d.Title),
			Creator:     string(d.Creator),
			Description: string(d.Description),
			Date:        d.Year.String(),
			Source:      types.SourceArchive,
		})
	}
	s.logger.Debug("archive search", "query", query, "results", len(docs))
	return docs, nil
}
