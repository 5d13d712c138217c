// Package memory provides an in-memory chunk store using brute-force cosine
// similarity. It is the default backend for tests and small corpora.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/parchmentlabs/folio/pkg/embedder"
	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/types"
)

type entry struct {
	chunk  types.Chunk
	vector []float32
}

// Store keeps chunks and their vectors in process memory, keyed by chunk ID
// so re-upserting an ID replaces the previous entry.
type Store struct {
	mu       sync.RWMutex
	embedder embedder.Client
	entries  map[string]entry
	closed   bool
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store backed by the given embedder.
func New(embedderClient embedder.Client) *Store {
	return &Store{
		embedder: embedderClient,
		entries:  make(map[string]entry),
	}
}

// ExistingDocuments returns the set of document identifiers with at least one
// stored chunk.
func (s *Store) ExistingDocuments(ctx context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	out := make(map[string]struct{})
	for _, e := range s.entries {
		out[e.chunk.DocumentID] = struct{}{}
	}
	return out, nil
}

// Upsert embeds and stores the chunks in MaxBatchSize batches. A failing
// batch stops the write and is reported; earlier batches stay written.
func (s *Store) Upsert(ctx context.Context, chunks []types.Chunk) error {
	batches := store.Batches(chunks)
	for i, batch := range batches {
		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return &store.BatchError{FailedBatch: i, Batches: len(batches), Err: err}
		}
		if len(vectors) != len(batch) {
			return &store.BatchError{
				FailedBatch: i,
				Batches:     len(batches),
				Err:         fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch)),
			}
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return &store.BatchError{FailedBatch: i, Batches: len(batches), Err: store.ErrClosed}
		}
		for j, c := range batch {
			s.entries[c.ID] = entry{chunk: c, vector: vectors[j]}
		}
		s.mu.Unlock()
	}
	return nil
}

// Query embeds the question and returns the n nearest chunks by cosine
// distance, ascending.
func (s *Store) Query(ctx context.Context, question string, n int, filter *store.Filter) ([]types.RetrievalHit, error) {
	if n <= 0 {
		return nil, types.ErrInvalidLimit
	}

	queryVec, err := s.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	hits := make([]types.RetrievalHit, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Matches(&e.chunk) {
			continue
		}
		d := cosineDistance(queryVec, e.vector)
		dist := d
		hits = append(hits, types.RetrievalHit{Chunk: e.chunk, Distance: &dist})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if *hits[i].Distance != *hits[j].Distance {
			return *hits[i].Distance < *hits[j].Distance
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if len(hits) > n {
		hits = hits[:n]
	}
	for i := range hits {
		hits[i].Rank = i
	}
	return hits, nil
}

// DeleteDocument removes all chunks belonging to the document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, store.ErrClosed
	}

	removed := 0
	for id, e := range s.entries {
		if e.chunk.DocumentID == documentID {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, store.ErrClosed
	}
	return len(s.entries), nil
}

// Close marks the store unusable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// cosineDistance returns 1 - cosine similarity, so lower means closer.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
