package embedder_test

import (
	"testing"

	"github.com/parchmentlabs/folio/pkg/embedder"
	"github.com/stretchr/testify/assert"
)

func TestNewOpenAIEmbedder(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		config embedder.Config
	}{
		{
			name:   "valid API key",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-3-small"},
		},
		{
			name:   "custom base URL",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-3-small", BaseURL: "https://api.example.com/v1"},
		},
		{
			name:   "empty config uses defaults",
			apiKey: "test-api-key",
			config: embedder.Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := embedder.NewOpenAIEmbedder(tt.apiKey, tt.config)
			assert.NotNil(t, client)
			assert.Greater(t, client.Dimensions(), 0)
		})
	}
}

func TestEmbedderInterface(t *testing.T) {
	var _ embedder.Client = (*embedder.OpenAIEmbedder)(nil)
	var _ embedder.Client = (*embedder.LocalEmbedder)(nil)
}
