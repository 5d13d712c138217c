package folio

import (
	"context"

	"github.com/parchmentlabs/folio/pkg/search"
	"github.com/parchmentlabs/folio/pkg/types"
)

// State is a stage of the fallback cascade.
type State string

const (
	// StateQueryPrimary queries the currently indexed corpus.
	StateQueryPrimary State = "QUERY_PRIMARY"
	// StateExpandSearch consults acquisition sources for new documents.
	StateExpandSearch State = "EXPAND_SEARCH"
	// StateAcquireAndIndex downloads and indexes the new documents.
	StateAcquireAndIndex State = "ACQUIRE_AND_INDEX_NEW_DOCS"
	// StateRequery re-runs the primary query against the widened index.
	StateRequery State = "REQUERY"
	// StateDone terminates the cascade with usable hits.
	StateDone State = "DONE"
	// StateInsufficient terminates the cascade without usable context.
	StateInsufficient State = "INSUFFICIENT"
)

// RetrievalResult is the outcome of one cascade run.
type RetrievalResult struct {
	Query        types.Query
	Hits         []types.RetrievalHit
	State        State
	FallbackUsed bool
}

// sufficient is the pure decision predicate of the cascade: enough hits, and
// when the question names entities, at least one hit whose entity is
// corroborated by both the source document and the chunk content. Keyword
// co-occurrence alone does not count.
func sufficient(hits []types.RetrievalHit, q types.Query, minHits int) bool {
	if len(hits) < minHits {
		return false
	}
	entities := q.Entities()
	if len(entities) == 0 {
		return true
	}
	for _, hit := range hits {
		for _, entity := range entities {
			one := []string{entity}
			if search.SourceMatchesEntity(hit.Chunk, one) && search.ContentMatchesEntity(hit.Chunk, one) {
				return true
			}
		}
	}
	return false
}

// runCascade executes the bounded two-tier state machine. It expands the
// search at most once per invocation.
func (c *Client) runCascade(ctx context.Context, q types.Query) *RetrievalResult {
	// QUERY_PRIMARY
	hits := c.engine.Retrieve(ctx, q, c.config.Search.PoolSize)
	if sufficient(hits, q, c.config.MinSufficientHits) {
		return &RetrievalResult{Query: q, Hits: hits, State: StateDone}
	}

	// EXPAND_SEARCH
	c.logger.Info("primary results insufficient, expanding search",
		"question", q.Question, "hits", len(hits))
	candidates := c.expandSearch(ctx, q)
	if len(candidates) > 0 {
		// ACQUIRE_AND_INDEX_NEW_DOCS
		c.acquireAndIndex(ctx, candidates)
	}

	// REQUERY
	hits = c.engine.Retrieve(ctx, q, c.config.Search.PoolSize)
	if sufficient(hits, q, c.config.MinSufficientHits) {
		return &RetrievalResult{Query: q, Hits: hits, State: StateDone, FallbackUsed: true}
	}
	return &RetrievalResult{Query: q, State: StateInsufficient, FallbackUsed: true}
}

// expandSearch consults both acquisition sources for documents not yet
// indexed. Source failures degrade to an empty candidate list.
func (c *Client) expandSearch(ctx context.Context, q types.Query) []types.Document {
	indexed, err := c.store.ExistingDocuments(ctx)
	if err != nil {
		c.logger.Warn("cannot list indexed documents, skipping expansion", "error", err)
		return nil
	}

	var candidates []types.Document
	appendNew := func(docs []types.Document) {
		for _, doc := range docs {
			if _, ok := indexed[doc.Identifier]; ok {
				continue
			}
			candidates = append(candidates, doc)
		}
	}

	if c.primary != nil {
		docs, err := c.primary.Find(ctx, q.ArchiveQuery, c.config.MaxAcquireDocs)
		if err != nil {
			c.logger.Warn("archive search failed", "error", err)
		} else {
			appendNew(docs)
		}
	}
	if c.secondary != nil {
		docs, err := c.secondary.Find(ctx, q.Question, c.config.MaxAcquireDocs)
		if err != nil {
			c.logger.Warn("local corpus scan failed", "error", err)
		} else {
			appendNew(docs)
		}
	}

	// When the question names entities, prefer candidates whose title or
	// description mentions one; unrelated material only pads the index.
	entities := q.Entities()
	if len(entities) > 0 {
		preferred := make([]types.Document, 0, len(candidates))
		rest := make([]types.Document, 0, len(candidates))
		for _, doc := range candidates {
			probe := types.Chunk{DocumentID: doc.Identifier, Title: doc.Title, Text: doc.Description}
			if search.SourceMatchesEntity(probe, entities) || search.ContentMatchesEntity(probe, entities) {
				preferred = append(preferred, doc)
			} else {
				rest = append(rest, doc)
			}
		}
		candidates = append(preferred, rest...)
	}

	if len(candidates) > c.config.MaxAcquireDocs {
		candidates = candidates[:c.config.MaxAcquireDocs]
	}
	return candidates
}

// acquireAndIndex fetches and indexes each candidate. An individual document
// failure is logged and skipped; partial progress is acceptable.
func (c *Client) acquireAndIndex(ctx context.Context, docs []types.Document) {
	for _, doc := range docs {
		text, err := c.fetchText(ctx, doc)
		if err != nil {
			c.logger.Warn("text acquisition failed, skipping document",
				"identifier", doc.Identifier, "error", err)
			continue
		}
		doc.RawText = text

		if _, err := c.IndexDocument(ctx, doc); err != nil {
			c.logger.Warn("indexing failed, skipping document",
				"identifier", doc.Identifier, "error", err)
		}
	}
}

func (c *Client) fetchText(ctx context.Context, doc types.Document) (string, error) {
	var fetcher TextFetcher
	switch doc.Source {
	case types.SourceLocal:
		fetcher = c.secondary
	default:
		fetcher = c.primary
	}
	if fetcher == nil {
		return "", nil
	}
	return fetcher.FetchText(ctx, doc)
}
