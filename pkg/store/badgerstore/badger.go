// Package badgerstore provides a persistent chunk store on BadgerDB. Chunks
// and their embeddings are stored as JSON values; similarity queries scan the
// collection with brute-force cosine distance, which is adequate for the
// corpus sizes this pipeline handles.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/parchmentlabs/folio/pkg/embedder"
	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/types"
)

const (
	chunkPrefix = "chunk/"
	docPrefix   = "doc/"
)

type record struct {
	Chunk     types.Chunk `json:"chunk"`
	Embedding []float32   `json:"embedding"`
}

// Store persists chunks in a Badger database at a directory path.
type Store struct {
	db       *badger.DB
	embedder embedder.Client
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the store at path.
func Open(path string, embedderClient embedder.Client) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return &Store{db: db, embedder: embedderClient}, nil
}

func chunkKey(id string) []byte { return []byte(chunkPrefix + id) }

// docKey indexes a chunk under its document for membership checks and
// cascading deletes without a full scan.
func docKey(documentID, chunkID string) []byte {
	return []byte(docPrefix + documentID + "/" + chunkID)
}

// ExistingDocuments returns the identifiers with at least one stored chunk.
func (s *Store) ExistingDocuments(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(docPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			rest := strings.TrimPrefix(key, docPrefix)
			if slash := strings.LastIndex(rest, "/"); slash > 0 {
				out[rest[:slash]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return out, nil
}

// Upsert embeds and writes the chunks in MaxBatchSize batches, each batch in
// its own transaction. A failed batch is reported; earlier batches stay
// written.
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

		err = s.db.Update(func(txn *badger.Txn) error {
			for j, c := range batch {
				value, err := json.Marshal(record{Chunk: c, Embedding: vectors[j]})
				if err != nil {
					return err
				}
				if err := txn.Set(chunkKey(c.ID), value); err != nil {
					return err
				}
				if err := txn.Set(docKey(c.DocumentID, c.ID), nil); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return &store.BatchError{FailedBatch: i, Batches: len(batches), Err: err}
		}
	}
	return nil
}

// Query embeds the question and scans the collection for the n nearest
// chunks by cosine distance, ascending.
func (s *Store) Query(ctx context.Context, question string, n int, filter *store.Filter) ([]types.RetrievalHit, error) {
	if n <= 0 {
		return nil, types.ErrInvalidLimit
	}

	queryVec, err := s.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	var hits []types.RetrievalHit
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(chunkPrefix), PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if !filter.Matches(&rec.Chunk) {
				continue
			}
			dist := cosineDistance(queryVec, rec.Embedding)
			hits = append(hits, types.RetrievalHit{Chunk: rec.Chunk, Distance: &dist})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
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

// DeleteDocument removes every chunk of the document and its index entries.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	removed := 0
	prefix := []byte(docPrefix + documentID + "/")

	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			chunkID := strings.TrimPrefix(string(key), string(prefix))
			if err := txn.Delete(chunkKey(chunkID)); err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return removed, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(chunkPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

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
