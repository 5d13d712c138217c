package folio

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/archive"
	"github.com/parchmentlabs/folio/pkg/config"
	"github.com/parchmentlabs/folio/pkg/embedder"
	"github.com/parchmentlabs/folio/pkg/gazetteer"
	"github.com/parchmentlabs/folio/pkg/localcorpus"
	foliologger "github.com/parchmentlabs/folio/pkg/logger"
	"github.com/parchmentlabs/folio/pkg/nlp"
	"github.com/parchmentlabs/folio/pkg/search"
	"github.com/parchmentlabs/folio/pkg/segment"
	"github.com/parchmentlabs/folio/pkg/store"
	"github.com/parchmentlabs/folio/pkg/store/badgerstore"
	"github.com/parchmentlabs/folio/pkg/store/memory"
	"github.com/parchmentlabs/folio/pkg/telemetry"
)

// initializeFolio wires every collaborator from the configuration: embedder,
// chunk store, language model, acquisition sources and telemetry.
func initializeFolio(cfg *config.Config) (*folio.Client, *slog.Logger, error) {
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	embedderClient, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	chunkStore, err := newStore(cfg, embedderClient)
	if err != nil {
		return nil, nil, err
	}

	llmClient, err := newLanguageModel(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	detector, err := newDetector(cfg)
	if err != nil {
		return nil, nil, err
	}

	folioConfig := folio.DefaultConfig()
	folioConfig.TargetChunkSize = cfg.Retrieval.TargetChunkSize
	folioConfig.Strategy = segment.Strategy(cfg.Retrieval.Strategy)
	folioConfig.Search = search.Config{
		ResultCap:  cfg.Retrieval.ResultCap,
		MinResults: cfg.Retrieval.MinResults,
		PoolSize:   cfg.Retrieval.PoolSize,
		ProbeSets:  search.DefaultProbeSets(),
	}
	folioConfig.MinContentLength = cfg.Retrieval.MinContentLength
	folioConfig.Denylist = cfg.Retrieval.Denylist
	folioConfig.Detector = detector

	client, err := folio.NewClient(chunkStore, llmClient, folioConfig, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create folio client: %w", err)
	}

	client.SetPrimarySource(archive.NewSource(archive.Config{
		BaseURL: cfg.Corpus.ArchiveURL,
		Rows:    cfg.Corpus.ArchiveRows,
		Download: archive.DownloaderConfig{
			MaxFiles:      cfg.Corpus.MaxFiles,
			MaxChars:      cfg.Corpus.MaxChars,
			DownloadDelay: time.Duration(cfg.Corpus.DownloadDelay) * time.Second,
		},
	}, log))
	client.SetSecondarySource(localcorpus.NewScanner(cfg.Corpus.LocalDir, archive.ExtractEPUB, log))

	if cfg.Telemetry.Enabled && cfg.Telemetry.ParquetPath != "" {
		if err := os.MkdirAll(cfg.Telemetry.ParquetPath, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create telemetry directory: %w", err)
		}
		recorder, err := telemetry.NewRecorder(cfg.Telemetry.ParquetPath)
		if err != nil {
			log.Warn("query telemetry disabled", "error", err)
		} else {
			client.SetRecorder(recorder)
		}
	}

	return client, log, nil
}

// newLogger builds the process logger. With telemetry enabled, error records
// are additionally batched to parquet files for later analysis.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: foliologger.ParseLevel(cfg.Log.Level)}
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = foliologger.NewColorHandler(os.Stderr, opts)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.ParquetPath != "" {
		if err := os.MkdirAll(cfg.Telemetry.ParquetPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
		}
		parquetHandler, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error tracking disabled: %v\n", err)
		} else {
			handler = parquetHandler
		}
	}
	return slog.New(handler), nil
}

func newEmbedder(cfg *config.Config) (embedder.Client, error) {
	embedderConfig := embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		BatchSize:  cfg.Embedding.BatchSize,
		Dimensions: cfg.Embedding.Dimensions,
	}
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		return embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedderConfig), nil
	case "local", "":
		return embedder.NewLocalEmbedder(embedderConfig)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func newStore(cfg *config.Config, embedderClient embedder.Client) (store.Store, error) {
	switch cfg.Store.Backend {
	case "badger":
		return badgerstore.Open(cfg.Store.Path, embedderClient)
	case "memory", "":
		return memory.New(embedderClient), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// newLanguageModel builds the LLM client stack: OpenAI-compatible base client,
// retry wrapper, and an optional circuit breaker. Without an API key the
// pipeline runs degraded: keyword planning falls back to the verbatim
// question and answer synthesis is unavailable.
func newLanguageModel(cfg *config.Config, log *slog.Logger) (nlp.Client, error) {
	if cfg.NLP.APIKey == "" && cfg.NLP.BaseURL == "" {
		log.Warn("no language model configured, planning and answering run degraded")
		return nil, nil
	}

	temperature := cfg.NLP.Temperature
	maxTokens := cfg.NLP.MaxTokens
	base, err := nlp.NewOpenAIClient(cfg.NLP.APIKey, nlp.Config{
		Model:       cfg.NLP.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		BaseURL:     cfg.NLP.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create language model client: %w", err)
	}

	retryConfig := nlp.DefaultRetryConfig()
	if cfg.NLP.MaxRetries > 0 {
		retryConfig.MaxRetries = cfg.NLP.MaxRetries
	}
	var client nlp.Client = nlp.NewRetryClient(base, retryConfig)

	if cfg.CircuitBreaker.Enabled {
		client = nlp.NewCircuitBreakerClient(client, nlp.CircuitBreakerConfig{
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
			Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
			ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		}, log, "language-model")
	}
	return client, nil
}

func newDetector(cfg *config.Config) (*gazetteer.Detector, error) {
	if cfg.Corpus.GazetteerPath == "" {
		return gazetteer.Default(), nil
	}
	detector, err := gazetteer.Load(cfg.Corpus.GazetteerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	return detector, nil
}
