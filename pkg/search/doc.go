// Package search retrieves ranked passages for a question from a chunk
// store.
//
// The Engine issues a base similarity query plus optional probe queries,
// merges the candidates with text-level deduplication, ranks them by a
// priority key that favors documents matching the question's detected
// entities, and caps the result list. A RelevanceFilter then drops noise
// chunks and prefers entity-relevant passages.
//
// Probe queries exist for questions that need precise factual recall
// (times, dates, manner). Which phrases get probed is configuration,
// not code: a ProbeSet pairs trigger words with the phrases to search
// when a trigger appears in the question.
package search
