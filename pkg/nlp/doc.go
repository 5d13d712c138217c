// Package nlp provides language model clients used by the retrieval
// pipeline for keyword extraction and answer synthesis.
//
// The base Client interface is implemented by an OpenAI-compatible client
// and composed with decorators: RetryClient adds exponential backoff for
// transient failures and CircuitBreakerClient stops hammering a provider
// that keeps failing. Callers are expected to degrade gracefully when every
// layer gives up; nothing in the retrieval path may surface an nlp error to
// the user.
package nlp
