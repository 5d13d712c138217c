package nlp

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem represents a system message.
	RoleSystem Role = "system"
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is a completed chat response.
type Response struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Model        string `json:"model,omitempty"`
}

// Client defines the interface for language model operations. The retrieval
// pipeline uses it for keyword extraction and answer synthesis; both callers
// must tolerate it failing and fall back to deterministic behavior.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// Close cleans up any resources.
	Close() error
}

// NewMessage creates a new message with the specified role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// Config holds configuration for LLM clients.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"` // Custom base URL for OpenAI-compatible services
}
