// Package store defines the chunk persistence contract of the retrieval
// pipeline and its shared batching and filtering helpers. Backends live in
// the memory and badgerstore subpackages; both vectorize text internally via
// pkg/embedder and answer similarity queries by ascending distance.
package store
