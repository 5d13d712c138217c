package badgerstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/types"
)

type wordHashEmbedder struct{}

func (e *wordHashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, 64)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := 0
			for _, r := range w {
				h = h*31 + int(r)
			}
			vec[((h%64)+64)%64]++
		}
		out[i] = vec
	}
	return out, nil
}

func (e *wordHashEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *wordHashEmbedder) Dimensions() int { return 64 }
func (e *wordHashEmbedder) Close() error    { return nil }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), &wordHashEmbedder{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testChunk(docID string, index int, text string) types.Chunk {
	return types.Chunk{
		ID:         types.ChunkID(docID, "fulltext", index),
		DocumentID: docID,
		Index:      index,
		Text:       text,
		SourceType: types.SourceFullText,
	}
}

func TestUpsertQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, []types.Chunk{
		testChunk("doc1", 0, "the siege lasted seven months"),
		testChunk("doc1", 1, "grain prices doubled that winter"),
	}))

	hits, err := s.Query(ctx, "how long did the siege last", 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Contains(t, hits[0].Chunk.Text, "siege")
}

func TestUpsertIdempotentAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := &wordHashEmbedder{}

	chunks := []types.Chunk{
		testChunk("doc1", 0, "Napoleon Bonaparte was a French emperor."),
		testChunk("doc1", 1, "He was born in Corsica in 1769."),
	}

	s, err := Open(dir, emb)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, chunks))
	require.NoError(t, s.Close())

	s, err = Open(dir, emb)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert(ctx, chunks))
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	docs, err := s.ExistingDocuments(ctx)
	require.NoError(t, err)
	assert.Contains(t, docs, "doc1")
}

// truncatingEmbedder drops the last vector from every batch.
type truncatingEmbedder struct{ wordHashEmbedder }

func (e *truncatingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.wordHashEmbedder.Embed(ctx, texts)
	if err != nil || len(vecs) == 0 {
		return vecs, err
	}
	return vecs[:len(vecs)-1], nil
}

func TestUpsertRejectsShortEmbedderOutput(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), &truncatingEmbedder{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	err = s.Upsert(ctx, []types.Chunk{
		testChunk("doc1", 0, "Napoleon Bonaparte was a French emperor."),
		testChunk("doc1", 1, "He was born in Corsica in 1769."),
	})
	var batchErr *store.BatchError
	require.ErrorAs(t, err, &batchErr)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, []types.Chunk{
		testChunk("doc1", 0, "alpha"),
		testChunk("doc1", 1, "beta"),
		testChunk("doc2", 0, "gamma"),
	}))

	removed, err := s.DeleteDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	docs, err := s.ExistingDocuments(ctx)
	require.NoError(t, err)
	assert.NotContains(t, docs, "doc1")
}
