package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/parchmentlabs/folio/pkg/types"
)

// MaxBatchSize is the largest number of chunks a single backend write may
// carry. Upsert splits larger inputs; callers never need to batch themselves.
const MaxBatchSize = 128

var (
	// ErrUnavailable is returned when the backing store cannot be reached.
	// Retrieval callers treat it as an empty result; indexing callers treat
	// it as fatal.
	ErrUnavailable = errors.New("chunk store unavailable")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chunk store closed")
)

// Filter narrows a query to chunks with matching metadata. Zero values match
// everything.
type Filter struct {
	DocumentID string
	SourceType types.SourceType
}

// Matches reports whether the chunk passes the filter.
func (f *Filter) Matches(c *types.Chunk) bool {
	if f == nil {
		return true
	}
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	if f.SourceType != "" && c.SourceType != f.SourceType {
		return false
	}
	return true
}

// Store is the chunk persistence contract. Implementations vectorize text
// internally through an embedder; callers pass raw text, never vectors.
//
// Upsert is idempotent by chunk ID: re-adding a chunk with the same ID
// replaces it. There is no all-or-nothing guarantee across batches: a
// partial batch failure is reported via BatchError while earlier batches
// remain written.
type Store interface {
	// ExistingDocuments returns the identifiers currently indexed. Cheap
	// enough to call once per request.
	ExistingDocuments(ctx context.Context) (map[string]struct{}, error)

	// Upsert adds or replaces chunks, batching internally at MaxBatchSize.
	Upsert(ctx context.Context, chunks []types.Chunk) error

	// Query returns up to n hits ordered by ascending distance.
	Query(ctx context.Context, question string, n int, filter *Filter) ([]types.RetrievalHit, error)

	// DeleteDocument removes every chunk of the document and returns how
	// many were removed.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// BatchError reports a partially failed Upsert. Batches before FailedBatch
// were written and stay written.
type BatchError struct {
	FailedBatch int
	Batches     int
	Err         error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upsert batch %d of %d failed: %v", e.FailedBatch+1, e.Batches, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Batches cuts chunks into MaxBatchSize slices, preserving order.
func Batches(chunks []types.Chunk) [][]types.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	var out [][]types.Chunk
	for start := 0; start < len(chunks); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		out = append(out, chunks[start:end])
	}
	return out
}
