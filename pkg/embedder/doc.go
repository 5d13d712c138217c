// Package embedder provides text embedding clients for vector
// representations.
//
// The Client interface is what chunk stores consume; implementations exist
// for the OpenAI embeddings API (including OpenAI-compatible services via a
// custom base URL) and for fully local embedding through go-embedeverything.
// Implementations handle request batching internally based on provider
// limits.
package embedder
