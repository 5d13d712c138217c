package nlp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int
	// InitialDelay is the initial delay before the first retry (default: 1 second)
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 30 seconds)
	MaxDelay time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps an LLM client and adds retry logic with exponential backoff
type RetryClient struct {
	client Client
	config *RetryConfig
}

// NewRetryClient creates a new retry client wrapper
func NewRetryClient(client Client, config *RetryConfig) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}

	return &RetryClient{client: client, config: config}
}

// Chat implements the Client interface with retry logic
func (r *RetryClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.calculateDelay(attempt)):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
			}
		}

		resp, err := r.client.Chat(ctx, messages)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// Close implements the Client interface
func (r *RetryClient) Close() error {
	return r.client.Close()
}

// calculateDelay calculates the delay for a given retry attempt using exponential backoff
func (r *RetryClient) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	return time.Duration(delay)
}

// isRetryableError determines if an error is retryable
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	if errors.Is(err, ErrRateLimit) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"500", "internal server error",
		"502", "bad gateway",
		"503", "service unavailable",
		"504", "gateway timeout",
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"rate limit",
		"too many requests",
		"429",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
