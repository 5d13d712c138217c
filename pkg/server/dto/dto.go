// Package dto defines the request and response bodies of the HTTP API.
package dto

import (
	"github.com/parchmentlabs/folio/pkg/types"
)

// AskRequest asks for a synthesized answer to a question.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse carries the synthesized answer. Found is false when the
// retrieval cascade ended without relevant context; Answer is then empty.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Found    bool   `json:"found"`
}

// SearchRequest asks for ranked passages for a question.
type SearchRequest struct {
	Question string `json:"question" binding:"required"`
}

// SearchResponse carries the cascade outcome and the ranked passages.
type SearchResponse struct {
	Question     string      `json:"question"`
	State        string      `json:"state"`
	FallbackUsed bool        `json:"fallback_used"`
	Hits         []HitResult `json:"hits"`
	Total        int         `json:"total"`
}

// HitResult is one ranked passage.
type HitResult struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title,omitempty"`
	Text       string   `json:"text"`
	SourceType string   `json:"source_type"`
	Rank       int      `json:"rank"`
	Distance   *float64 `json:"distance,omitempty"`
}

// NewHitResult converts a retrieval hit to its wire form.
func NewHitResult(hit types.RetrievalHit) HitResult {
	return HitResult{
		DocumentID: hit.Chunk.DocumentID,
		Title:      hit.Chunk.Title,
		Text:       hit.Chunk.Text,
		SourceType: string(hit.Chunk.SourceType),
		Rank:       hit.Rank,
		Distance:   hit.Distance,
	}
}

// NewHitResults converts a ranked hit list to its wire form.
func NewHitResults(hits []types.RetrievalHit) []HitResult {
	out := make([]HitResult, len(hits))
	for i, hit := range hits {
		out[i] = NewHitResult(hit)
	}
	return out
}

// IndexRequest submits a document for indexing.
type IndexRequest struct {
	Identifier  string `json:"identifier" binding:"required"`
	Title       string `json:"title,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Source      string `json:"source,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Document converts the request to the domain document.
func (r IndexRequest) Document() types.Document {
	source := types.SourceKind(r.Source)
	if source == "" {
		source = types.SourceLocal
	}
	return types.Document{
		Identifier:  r.Identifier,
		Title:       r.Title,
		Creator:     r.Creator,
		Description: r.Description,
		Date:        r.Date,
		Source:      source,
		RawText:     r.Text,
	}
}

// IndexResponse reports the indexing outcome.
type IndexResponse struct {
	Identifier string `json:"identifier"`
	Chunks     int    `json:"chunks"`
}

// DeleteResponse reports how many chunks a deletion removed.
type DeleteResponse struct {
	Identifier string `json:"identifier"`
	Removed    int    `json:"removed"`
}

// StatsResponse summarizes the indexed corpus.
type StatsResponse struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
