package folio

import (
	"context"
	"errors"
	"log/slog"

	"github.com/parchmentlabs/folio/pkg/gazetteer"
	"github.com/parchmentlabs/folio/pkg/nlp"
	"github.com/parchmentlabs/folio/pkg/queryplan"
	"github.com/parchmentlabs/folio/pkg/search"
	"github.com/parchmentlabs/folio/pkg/segment"
	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/telemetry"
)

var (
	// ErrIndexingFailed is returned when the chunk store rejects a write.
	// The document is not marked indexed; re-running the indexing operation
	// is safe.
	ErrIndexingFailed = errors.New("indexing failed")
	// ErrNoRelevantContext is returned by Answer when the fallback cascade
	// ends INSUFFICIENT. It is an outcome, not a technical failure.
	ErrNoRelevantContext = errors.New("no relevant context found")
	// ErrNoLanguageModel is returned by Answer when no nlp client was
	// injected.
	ErrNoLanguageModel = errors.New("no language model configured")
)

// Config holds configuration for the Client.
type Config struct {
	// TargetChunkSize is the segmentation target in characters.
	TargetChunkSize int
	// Strategy selects the segmentation strategy for full-text documents.
	Strategy segment.Strategy
	// Search tunes the retrieval engine (pool size, caps, probe sets).
	Search search.Config
	// MinContentLength and Denylist configure the default relevance filter.
	MinContentLength int
	Denylist         []string
	// MinSufficientHits is the result count below which the fallback
	// cascade widens the search.
	MinSufficientHits int
	// MaxAcquireDocs bounds how many new documents one expansion indexes.
	MaxAcquireDocs int
	// Detector overrides the embedded gazetteer tables.
	Detector *gazetteer.Detector
	// Filter overrides the default substring relevance filter.
	Filter search.RelevanceFilter
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		TargetChunkSize:   segment.DefaultTargetSize,
		Strategy:          segment.StrategySentence,
		Search:            search.DefaultConfig(),
		MinContentLength:  search.DefaultMinContentLength,
		MinSufficientHits: 3,
		MaxAcquireDocs:    3,
	}
}

// Client is the main implementation of the Folio interface.
type Client struct {
	store    store.Store
	llm      nlp.Client
	detector *gazetteer.Detector
	planner  *queryplan.Planner
	engine   *search.Engine
	config   *Config
	logger   *slog.Logger

	// Acquisition sources for the fallback cascade. Either may be nil.
	primary   CorpusSource
	secondary CorpusSource

	recorder *telemetry.Recorder
	locks    *docLocks
}

// NewClient creates a new Folio client. llmClient may be nil: query planning
// then degrades to the verbatim question and Answer is unavailable.
func NewClient(chunkStore store.Store, llmClient nlp.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if chunkStore == nil {
		return nil, errors.New("chunk store is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.TargetChunkSize <= 0 {
		config.TargetChunkSize = segment.DefaultTargetSize
	}
	if config.Strategy == "" {
		config.Strategy = segment.StrategySentence
	}
	if config.MinSufficientHits <= 0 {
		config.MinSufficientHits = 3
	}
	if config.MaxAcquireDocs <= 0 {
		config.MaxAcquireDocs = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	detector := config.Detector
	if detector == nil {
		detector = gazetteer.Default()
	}

	filter := config.Filter
	if filter == nil {
		filter = search.NewSubstringFilter(config.MinContentLength, config.Denylist)
	}

	return &Client{
		store:    chunkStore,
		llm:      llmClient,
		detector: detector,
		planner:  queryplan.New(llmClient, detector, logger),
		engine:   search.NewEngine(chunkStore, filter, config.Search, logger),
		config:   config,
		logger:   logger,
		locks:    newDocLocks(),
	}, nil
}

// SetPrimarySource wires the archive acquisition collaborator used by the
// fallback cascade.
func (c *Client) SetPrimarySource(src CorpusSource) {
	c.primary = src
}

// SetSecondarySource wires the local corpus collaborator.
func (c *Client) SetSecondarySource(src CorpusSource) {
	c.secondary = src
}

// SetRecorder wires query telemetry.
func (c *Client) SetRecorder(r *telemetry.Recorder) {
	c.recorder = r
}

// ExistingDocuments returns the identifiers currently indexed.
func (c *Client) ExistingDocuments(ctx context.Context) (map[string]struct{}, error) {
	return c.store.ExistingDocuments(ctx)
}

// Count returns the total number of indexed chunks.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}

// Close closes the chunk store, the language model client and telemetry.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
