// Package folio answers natural-language questions over a heterogeneous
// text corpus by retrieval-augmented generation: documents are segmented
// into bounded chunks, indexed in an embedding-backed chunk store, and
// retrieved through a planned, entity-aware similarity search with a
// bounded fallback cascade that can widen into external corpora.
//
// The entry point is Client, constructed with NewClient from explicitly
// injected collaborators: a chunk store, a query planner, an entity
// detector, a retrieval engine and optional acquisition sources. The
// pipeline for one question is
//
//	plan -> retrieve -> filter -> (fallback: acquire + index + requery) -> answer
//
// Retrieval-side failures degrade to empty results; only indexing surfaces
// errors. An unanswerable question is a defined outcome, not an error: the
// cascade ends INSUFFICIENT and Answer returns ErrNoRelevantContext.
package folio
