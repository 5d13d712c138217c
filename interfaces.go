package folio

import (
	"context"

	"github.com/parchmentlabs/folio/pkg/types"
)

// This file defines focused interfaces that follow the Interface Segregation
// Principle. The main Folio interface is composed from these smaller
// interfaces; consumers should depend on the smallest one that meets their
// needs.

// CorpusIndexer provides write operations on the indexed corpus.
type CorpusIndexer interface {
	// IndexDocument segments the document's text and upserts the resulting
	// chunks. Indexing the same document text twice produces the same chunk
	// ids and leaves the chunk count unchanged. Returns how many chunks the
	// document now has.
	IndexDocument(ctx context.Context, doc types.Document) (int, error)

	// DeleteDocument removes every chunk of the document and returns how
	// many were removed.
	DeleteDocument(ctx context.Context, documentID string) (int, error)
}

// PassageRetriever provides the read side of the pipeline.
type PassageRetriever interface {
	// Search plans the question and retrieves ranked passages from the
	// currently indexed corpus, without widening the search.
	Search(ctx context.Context, question string) ([]types.RetrievalHit, error)

	// Retrieve runs the full cascade: primary query, and a single bounded
	// expansion into the acquisition sources when the primary results are
	// insufficient. The returned outcome is DONE or INSUFFICIENT.
	Retrieve(ctx context.Context, question string) (*RetrievalResult, error)

	// Answer retrieves passages and synthesizes a prose answer. Returns
	// ErrNoRelevantContext when the cascade ends INSUFFICIENT.
	Answer(ctx context.Context, question string) (string, error)
}

// CorpusAdmin provides administrative operations.
type CorpusAdmin interface {
	// ExistingDocuments returns the identifiers currently indexed.
	ExistingDocuments(ctx context.Context) (map[string]struct{}, error)

	// Count returns the total number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Close closes all connections and cleans up resources.
	Close(ctx context.Context) error
}

// DocumentFinder lists candidate documents for a query from one corpus.
type DocumentFinder interface {
	Find(ctx context.Context, query string, limit int) ([]types.Document, error)
}

// TextFetcher extracts a document's full text.
type TextFetcher interface {
	FetchText(ctx context.Context, doc types.Document) (string, error)
}

// CorpusSource is an acquisition collaborator: a searchable corpus whose
// documents can be fetched and indexed on demand.
type CorpusSource interface {
	DocumentFinder
	TextFetcher
}

// Folio is the full pipeline contract.
type Folio interface {
	CorpusIndexer
	PassageRetriever
	CorpusAdmin
}

// Compile-time check that Client satisfies the composed interface.
var _ Folio = (*Client)(nil)
