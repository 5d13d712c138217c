// Package types defines the shared data model for the folio retrieval
// pipeline: documents acquired from a corpus, the chunks derived from them,
// planned queries and retrieval hits.
package types
