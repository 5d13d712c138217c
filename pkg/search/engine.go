package search

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/types"
)

const (
	// DefaultResultCap bounds what reaches the answer-synthesis step.
	DefaultResultCap = 5
	// DefaultMinResults is the floor below which filtering is relaxed.
	DefaultMinResults = 2
	// DefaultPoolSize is how many candidates the base query inspects before
	// ranking and filtering narrow them down.
	DefaultPoolSize = 20
)

// Config tunes the retrieval engine.
type Config struct {
	ResultCap  int
	MinResults int
	PoolSize   int
	ProbeSets  []ProbeSet
}

// DefaultConfig returns the engine defaults with the built-in probe sets.
func DefaultConfig() Config {
	return Config{
		ResultCap:  DefaultResultCap,
		MinResults: DefaultMinResults,
		PoolSize:   DefaultPoolSize,
		ProbeSets:  DefaultProbeSets(),
	}
}

// Engine retrieves, merges, ranks and caps passage candidates for a question.
type Engine struct {
	store  store.Store
	filter RelevanceFilter
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates a retrieval engine. A nil filter disables relevance
// filtering, and zero config fields take their defaults.
func NewEngine(st store.Store, filter RelevanceFilter, cfg Config, logger *slog.Logger) *Engine {
	if cfg.ResultCap <= 0 {
		cfg.ResultCap = DefaultResultCap
	}
	if cfg.MinResults <= 0 {
		cfg.MinResults = DefaultMinResults
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if filter == nil {
		filter = passthroughFilter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, filter: filter, cfg: cfg, logger: logger}
}

// Retrieve returns the ranked, filtered and capped hits for the query. Store
// failures behave like an empty corpus: the caller decides whether an empty
// list warrants a fallback, retrieval itself never errors.
func (e *Engine) Retrieve(ctx context.Context, q types.Query, poolSize int) []types.RetrievalHit {
	if poolSize <= 0 {
		poolSize = e.cfg.PoolSize
	}

	candidates := e.collect(ctx, q, poolSize)
	if len(candidates) == 0 {
		return nil
	}

	ranked := e.rank(candidates, q.Entities())

	hits := e.filter.Filter(ranked, q)
	if len(hits) < e.cfg.MinResults {
		// Too strict for this pool. Re-include ranked candidates the filter
		// dropped rather than starving the synthesis step.
		hits = relax(hits, ranked, e.cfg.ResultCap)
	}

	if len(hits) > e.cfg.ResultCap {
		hits = hits[:e.cfg.ResultCap]
	}
	for i := range hits {
		hits[i].Rank = i
	}
	return hits
}

// probeQuery is one similarity query in the fan-out, ordered by declaration
// so the merge stays deterministic no matter which goroutine finishes first.
type probeQuery struct {
	text  string
	limit int
}

// collect runs the base query plus any triggered probe queries concurrently
// and merges the results, deduplicated by exact chunk text. Identical content
// indexed under different ids must not surface twice.
func (e *Engine) collect(ctx context.Context, q types.Query, poolSize int) []types.RetrievalHit {
	queries := []probeQuery{{text: q.Question, limit: poolSize}}
	for _, set := range e.cfg.ProbeSets {
		if !set.Matches(q.Question) {
			continue
		}
		limit := set.Limit
		if limit <= 0 {
			limit = DefaultResultCap
		}
		for _, phrase := range set.Phrases {
			queries = append(queries, probeQuery{text: phrase, limit: limit})
		}
	}

	results := make([][]types.RetrievalHit, len(queries))
	var wg sync.WaitGroup
	for i, pq := range queries {
		wg.Add(1)
		go func(i int, pq probeQuery) {
			defer wg.Done()
			hits, err := e.store.Query(ctx, pq.text, pq.limit, nil)
			if err != nil {
				e.logger.Debug("similarity query failed", "query", pq.text, "error", err)
				return
			}
			results[i] = hits
		}(i, pq)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []types.RetrievalHit
	for _, hits := range results {
		for _, hit := range hits {
			if _, dup := seen[hit.Chunk.Text]; dup {
				continue
			}
			seen[hit.Chunk.Text] = struct{}{}
			merged = append(merged, hit)
		}
	}
	return merged
}

// rank orders candidates by priority key: hits whose source document itself
// names a detected entity come before plain distance ordering, a missing
// distance sorts worst, and the stable sort keeps query order for ties.
func (e *Engine) rank(hits []types.RetrievalHit, entities []string) []types.RetrievalHit {
	ranked := make([]types.RetrievalHit, len(hits))
	copy(ranked, hits)

	sort.SliceStable(ranked, func(i, j int) bool {
		pi := SourceMatchesEntity(ranked[i].Chunk, entities)
		pj := SourceMatchesEntity(ranked[j].Chunk, entities)
		if pi != pj {
			return pi
		}
		return lessDistance(ranked[i].Distance, ranked[j].Distance)
	})
	return ranked
}

func lessDistance(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// relax appends ranked candidates the filter rejected, preserving priority
// order, until the cap is reached.
func relax(kept, ranked []types.RetrievalHit, limit int) []types.RetrievalHit {
	included := make(map[string]struct{}, len(kept))
	for _, hit := range kept {
		included[hit.Chunk.Text] = struct{}{}
	}
	for _, hit := range ranked {
		if len(kept) >= limit {
			break
		}
		if _, ok := included[hit.Chunk.Text]; ok {
			continue
		}
		included[hit.Chunk.Text] = struct{}{}
		kept = append(kept, hit)
	}
	return kept
}

// passthroughFilter keeps every hit; used when no relevance filter is wired.
type passthroughFilter struct{}

func (passthroughFilter) Filter(hits []types.RetrievalHit, _ types.Query) []types.RetrievalHit {
	return hits
}
