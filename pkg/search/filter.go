package search

import (
	"strings"

	"github.com/parchmentlabs/folio/pkg/types"
)

// DefaultMinContentLength drops chunks too short to carry meaning, typically
// OCR noise or stray headings.
const DefaultMinContentLength = 40

// RelevanceFilter decides which ranked hits are worth passing to answer
// synthesis. Implementations must be deterministic and make no network or
// store calls; the default is substring-based but a learned classifier can
// slot in behind the same interface.
type RelevanceFilter interface {
	Filter(hits []types.RetrievalHit, q types.Query) []types.RetrievalHit
}

// SubstringFilter is the default RelevanceFilter. It drops short chunks and
// denylisted content, then prefers hits that reference a detected entity in
// their source document or text.
type SubstringFilter struct {
	// MinContentLength is the minimum chunk text length in characters.
	MinContentLength int
	// Denylist holds lowercase substrings marking known off-topic material
	// that leaked into the index from unrelated documents.
	Denylist []string
}

// NewSubstringFilter creates the default filter.
func NewSubstringFilter(minLength int, denylist []string) *SubstringFilter {
	if minLength <= 0 {
		minLength = DefaultMinContentLength
	}
	lowered := make([]string, len(denylist))
	for i, d := range denylist {
		lowered[i] = strings.ToLower(d)
	}
	return &SubstringFilter{MinContentLength: minLength, Denylist: lowered}
}

// Filter implements RelevanceFilter. Entity-relevant hits keep their relative
// order ahead of the rest; with no detected entities every surviving hit is
// equally eligible.
func (f *SubstringFilter) Filter(hits []types.RetrievalHit, q types.Query) []types.RetrievalHit {
	survivors := make([]types.RetrievalHit, 0, len(hits))
	for _, hit := range hits {
		if len(hit.Chunk.Text) < f.MinContentLength {
			continue
		}
		if f.denied(hit.Chunk.Text) {
			continue
		}
		survivors = append(survivors, hit)
	}

	entities := q.Entities()
	if len(entities) == 0 {
		return survivors
	}

	relevant := make([]types.RetrievalHit, 0, len(survivors))
	other := make([]types.RetrievalHit, 0, len(survivors))
	for _, hit := range survivors {
		if SourceMatchesEntity(hit.Chunk, entities) || ContentMatchesEntity(hit.Chunk, entities) {
			relevant = append(relevant, hit)
		} else {
			other = append(other, hit)
		}
	}
	return append(relevant, other...)
}

func (f *SubstringFilter) denied(text string) bool {
	lower := strings.ToLower(text)
	for _, d := range f.Denylist {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// SourceMatchesEntity reports whether the chunk's document identifier or
// title names one of the detected entities. Identifier matching also accepts
// the entity with spaces collapsed, since archive identifiers drop them.
func SourceMatchesEntity(chunk types.Chunk, entities []string) bool {
	id := strings.ToLower(chunk.DocumentID)
	title := strings.ToLower(chunk.Title)
	for _, entity := range entities {
		entity = strings.ToLower(entity)
		if strings.Contains(title, entity) || strings.Contains(id, entity) {
			return true
		}
		squeezed := strings.ReplaceAll(entity, " ", "")
		if squeezed != entity && strings.Contains(id, squeezed) {
			return true
		}
		// Archive identifiers often carry just one part of the name, as in
		// "memoirsofnapoleon" or "churchillspeeches".
		for _, part := range strings.Fields(entity) {
			if len(part) > 3 && (strings.Contains(id, part) || strings.Contains(title, part)) {
				return true
			}
		}
	}
	return false
}

// ContentMatchesEntity reports whether the chunk text itself mentions one of
// the detected entities.
func ContentMatchesEntity(chunk types.Chunk, entities []string) bool {
	lower := strings.ToLower(chunk.Text)
	for _, entity := range entities {
		if strings.Contains(lower, strings.ToLower(entity)) {
			return true
		}
		// A canonical "first last" name also counts when only one of its
		// parts appears.
		for _, part := range strings.Fields(entity) {
			if len(part) > 3 && strings.Contains(lower, strings.ToLower(part)) {
				return true
			}
		}
	}
	return false
}
