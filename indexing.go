package folio

import (
	"context"
	"fmt"
	"sync"

	"github.com/parchmentlabs/folio/pkg/segment"
	"github.com/parchmentlabs/folio/pkg/types"
)

// docLocks serializes writes per document identifier so concurrent indexing
// of the same document cannot interleave. Different documents proceed
// independently.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*sync.Mutex)}
}

func (d *docLocks) forDoc(id string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[id]
	if !ok {
		l = &sync.Mutex{}
		d.locks[id] = l
	}
	return l
}

// IndexDocument segments the document and upserts its chunks. Chunk ids are
// derived from the identifier, the strategy tag and the chunk index, so
// re-indexing identical text replaces chunks in place and leaves the count
// unchanged. A document without full text falls back to indexing its
// catalogue description.
func (c *Client) IndexDocument(ctx context.Context, doc types.Document) (int, error) {
	if err := doc.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	text := doc.RawText
	sourceType := types.SourceFullText
	switch {
	case doc.Source == types.SourceLocal && text != "":
		sourceType = types.SourceLocalFile
	case text == "" && doc.Description != "":
		text = doc.Description
		sourceType = types.SourceDescription
	case text == "":
		return 0, nil
	}

	strategy := c.config.Strategy
	if sourceType == types.SourceDescription {
		// Descriptions are short; one sentence pass keeps their ids stable
		// even if the full-text strategy changes.
		strategy = segment.StrategySentence
	}
	variant := string(strategy)

	pieces := segment.Split(text, c.config.TargetChunkSize, strategy)
	chunks := make([]types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, types.Chunk{
			ID:         types.ChunkID(doc.Identifier, variant, i),
			DocumentID: doc.Identifier,
			Title:      doc.Title,
			Index:      i,
			Text:       piece,
			SourceType: sourceType,
		})
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	lock := c.locks.forDoc(doc.Identifier)
	lock.Lock()
	defer lock.Unlock()

	if err := c.store.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("%w: upsert %s: %v", ErrIndexingFailed, doc.Identifier, err)
	}

	c.logger.Info("document indexed",
		"identifier", doc.Identifier,
		"chunks", len(chunks),
		"strategy", variant,
		"source_type", sourceType)
	return len(chunks), nil
}

// DeleteDocument removes every chunk of the document.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	lock := c.locks.forDoc(documentID)
	lock.Lock()
	defer lock.Unlock()

	removed, err := c.store.DeleteDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	c.logger.Info("document deleted", "identifier", documentID, "chunks_removed", removed)
	return removed, nil
}
