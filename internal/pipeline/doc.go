// Package pipeline runs ingestion stages in sequence over a shared run state.
//
// Each stage (crawl, download, process, load-db, index, ner) is a Step that
// receives the Run: the ledger, the working URL list, and a unique run ID.
// After each successful step the pipeline calls its checkpoint, which saves
// the ledger, so an interrupted run resumes from the last completed stage.
// A cancelled run is never checkpointed.
package pipeline
