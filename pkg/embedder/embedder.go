package embedder

import "context"

// Client defines the interface for text embedding operations. Chunk stores
// use it to vectorize both indexed text and incoming questions.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common configuration for embedding clients.
type Config struct {
	Model     string `json:"model"`
	BaseURL   string `json:"base_url,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
	Dimensions int   `json:"dimensions,omitempty"`
}
