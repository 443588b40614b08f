// Package model defines the data structures shared by the ingestion stages.
//
// This package contains the following main types:
//   - URLRecord: the per-URL ledger entry persisted in the run state
//   - Chunk: a paragraph-delimited, position-addressable span of page text
//   - ProcessedDocument: the per-file output of the process stage
//   - Mention: a named-entity span found in chunk text
//
// Types live here rather than in the stage packages so that the state
// ledger, the stages, and the report writers can share them without
// import cycles. All of them serialize to the JSON layouts persisted on disk.
package model
