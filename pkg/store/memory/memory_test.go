package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/types"
)

// wordHashEmbedder is a deterministic bag-of-words embedder for tests.
type wordHashEmbedder struct {
	failAfter int
	calls     int
}

func (e *wordHashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.failAfter > 0 && e.calls > e.failAfter {
		return nil, errors.New("embedder down")
	}
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

func chunk(docID string, index int, text string) types.Chunk {
	return types.Chunk{
		ID:         types.ChunkID(docID, "fulltext", index),
		DocumentID: docID,
		Index:      index,
		Text:       text,
		SourceType: types.SourceFullText,
	}
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(&wordHashEmbedder{})

	chunks := []types.Chunk{
		chunk("doc1", 0, "Napoleon Bonaparte was a French emperor."),
		chunk("doc1", 1, "He was born in Corsica in 1769."),
	}
	require.NoError(t, s.Upsert(ctx, chunks))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Second run with identical input leaves state unchanged.
	require.NoError(t, s.Upsert(ctx, chunks))
	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQueryOrdering(t *testing.T) {
	ctx := context.Background()
	s := New(&wordHashEmbedder{})

	require.NoError(t, s.Upsert(ctx, []types.Chunk{
		chunk("doc1", 0, "cats like sleeping in warm places"),
		chunk("doc1", 1, "the stock market fell sharply today"),
	}))

	hits, err := s.Query(ctx, "cats like sleeping", 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Contains(t, hits[0].Chunk.Text, "cats")
	require.NotNil(t, hits[0].Distance)
	require.NotNil(t, hits[1].Distance)
	assert.LessOrEqual(t, *hits[0].Distance, *hits[1].Distance)
	assert.Equal(t, 0, hits[0].Rank)
}

func TestQueryFilter(t *testing.T) {
	ctx := context.Background()
	s := New(&wordHashEmbedder{})

	local := chunk("local_memoirs", 0, "memoirs of the campaign")
	local.SourceType = types.SourceLocalFile
	require.NoError(t, s.Upsert(ctx, []types.Chunk{
		chunk("doc1", 0, "memoirs of the campaign"),
		local,
	}))

	hits, err := s.Query(ctx, "campaign memoirs", 10, &store.Filter{SourceType: types.SourceLocalFile})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "local_memoirs", hits[0].Chunk.DocumentID)
}

func TestDeleteDocumentCascades(t *testing.T) {
	ctx := context.Background()
	s := New(&wordHashEmbedder{})

	require.NoError(t, s.Upsert(ctx, []types.Chunk{
		chunk("doc1", 0, "first"),
		chunk("doc1", 1, "second"),
		chunk("doc2", 0, "other"),
	}))

	removed, err := s.DeleteDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	docs, err := s.ExistingDocuments(ctx)
	require.NoError(t, err)
	assert.NotContains(t, docs, "doc1")
	assert.Contains(t, docs, "doc2")
}

func TestUpsertPartialBatchFailure(t *testing.T) {
	ctx := context.Background()
	emb := &wordHashEmbedder{failAfter: 1}
	s := New(emb)

	// Two batches: the first embeds fine, the second hits the failure.
	chunks := make([]types.Chunk, store.MaxBatchSize+1)
	for i := range chunks {
		chunks[i] = chunk("doc1", i, "text")
	}

	err := s.Upsert(ctx, chunks)
	require.Error(t, err)
	var batchErr *store.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.FailedBatch)

	// The first batch stays written.
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.MaxBatchSize, count)
}

func TestQueryUnavailableEmbedder(t *testing.T) {
	ctx := context.Background()
	emb := &wordHashEmbedder{failAfter: 1}
	s := New(emb)
	_, _ = emb.Embed(ctx, []string{"use up the healthy call"})

	_, err := s.Query(ctx, "anything", 5, nil)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New(&wordHashEmbedder{})
	require.NoError(t, s.Close())

	_, err := s.Count(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}
