package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the Client interface for OpenAI's language models.
// Supports OpenAI-compatible services through a custom BaseURL.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string, config Config) (*OpenAIClient, error) {
	var client *openai.Client

	if config.BaseURL != "" {
		// Some OpenAI-compatible services run without authentication.
		if apiKey == "" {
			apiKey = "dummy-key"
		}
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		if !strings.Contains(config.BaseURL, "/v1") {
			clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/") + "/v1"
		}
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		if apiKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		client = openai.NewClient(apiKey)
	}

	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}

	return &OpenAIClient{client: client, config: config}, nil
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		req.MaxTokens = *c.config.MaxTokens
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
	}, nil
}

// Close cleans up any resources.
func (c *OpenAIClient) Close() error {
	return nil
}
