package types

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyIdentifier = errors.New("identifier cannot be empty")
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrInvalidLimit    = errors.New("limit must be positive")
)

// SourceKind identifies where a document was acquired from.
type SourceKind string

const (
	// SourceArchive marks documents downloaded from the remote archive.
	SourceArchive SourceKind = "archive"
	// SourceLocal marks documents scanned from the local corpus directory.
	SourceLocal SourceKind = "local"
)

// SourceType identifies what part of a document a chunk was derived from.
type SourceType string

const (
	// SourceFullText marks chunks derived from a document's full text.
	SourceFullText SourceType = "full_text"
	// SourceDescription marks chunks derived from catalogue descriptions,
	// used when no full text could be extracted.
	SourceDescription SourceType = "description"
	// SourceLocalFile marks chunks derived from a local corpus file.
	SourceLocalFile SourceType = "local_file"
)

// Document is a single source item produced by an acquisition collaborator.
// The pipeline never mutates a Document, it only derives Chunks from it.
type Document struct {
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	Creator    string     `json:"creator,omitempty"`
	Description string    `json:"description,omitempty"`
	Date       string     `json:"date,omitempty"`
	Source     SourceKind `json:"source"`
	RawText    string     `json:"raw_text,omitempty"`
}

// Validate checks that the Document has all required fields set.
func (d *Document) Validate() error {
	if d.Identifier == "" {
		return ErrEmptyIdentifier
	}
	return nil
}

// Chunk is a bounded-size contiguous span of a document's text, the unit of
// indexing and retrieval.
type Chunk struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Title      string     `json:"title,omitempty"`
	Index      int        `json:"index"`
	Text       string     `json:"text"`
	SourceType SourceType `json:"source_type"`
}

// Validate checks that the Chunk has all required fields set.
func (c *Chunk) Validate() error {
	if c.DocumentID == "" {
		return ErrEmptyIdentifier
	}
	if c.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ChunkID derives the stable identifier for a chunk. The same document,
// variant tag and index always map to the same ID, which is what makes
// re-indexing idempotent.
func ChunkID(documentID, variantTag string, index int) string {
	return fmt.Sprintf("%s_%s_chunk_%d", documentID, variantTag, index)
}

// Query is a planned question: the verbatim text plus everything derived
// from it before any store access.
type Query struct {
	Question     string   `json:"question"`
	People       []string `json:"people,omitempty"`
	Events       []string `json:"events,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	ArchiveQuery string   `json:"archive_query,omitempty"`
}

// Entities returns all detected entity names, people first.
func (q *Query) Entities() []string {
	out := make([]string, 0, len(q.People)+len(q.Events))
	out = append(out, q.People...)
	out = append(out, q.Events...)
	return out
}

// HasEntities reports whether the question named any known person or event.
func (q *Query) HasEntities() bool {
	return len(q.People) > 0 || len(q.Events) > 0
}

// RetrievalHit is a chunk returned by a similarity query. Distance is nil
// when the store could not supply one; nil ranks worse than any real value.
type RetrievalHit struct {
	Chunk    Chunk    `json:"chunk"`
	Distance *float64 `json:"distance,omitempty"`
	Rank     int      `json:"rank"`
}
