package nlp

import "errors"

// Common LLM client errors
var (
	// ErrRateLimit indicates the rate limit has been exceeded
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrEmptyResponse indicates the LLM returned an empty response
	ErrEmptyResponse = errors.New("the LLM returned an empty response")
)

// RateLimitError represents a rate limit error with optional custom message
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return e.Message
}

// Is allows errors.Is(err, &RateLimitError{}) to work with wrapped errors.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}
