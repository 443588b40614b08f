// Package search feeds processed chunks into a full-text search index.
//
// Each chunk becomes one record keyed by "<file_sha256>-<page_no>-<chunk_no>".
// Records are sent in add-or-replace batches, so indexing the same document
// twice overwrites its records instead of duplicating them. The Indexer
// interface hides the search engine; MeiliIndexer is the Meilisearch
// implementation used by the index command.
package search
