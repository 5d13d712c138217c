package embedder

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultEmbeddingModel = string(openai.SmallEmbedding3)
	defaultBatchSize      = 100
	defaultDimensions     = 1536
)

// OpenAIEmbedder implements the Client interface using the OpenAI embeddings
// API. A custom BaseURL allows OpenAI-compatible services.
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEmbedder creates a new OpenAI embedding client.
func NewOpenAIEmbedder(apiKey string, config Config) *OpenAIEmbedder {
	if config.Model == "" {
		config.Model = defaultEmbeddingModel
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	if config.Dimensions <= 0 {
		config.Dimensions = defaultDimensions
	}

	var client *openai.Client
	if config.BaseURL != "" {
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIEmbedder{client: client, config: config}
}

// Embed generates embeddings for the given texts, batching requests to stay
// within the provider's per-request limit.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.config.Model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding request failed: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// Close cleans up any resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
