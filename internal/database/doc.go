// Package database stores the document corpus in SQLite.
//
// The database holds four related tables plus a run log:
//
//   - documents: one row per source URL, with the file hash and page count
//   - chunks: the paragraphs of each document, keyed by (doc, page, chunk)
//   - entities: named entities keyed by canonical text and type
//   - entity_mentions: where each entity occurs inside a chunk
//   - ingest_runs: one row per stage execution with its counters
//
// Every write is an upsert, so loading the same processed output twice
// leaves the database unchanged. LoadProcessed is the bridge between the
// run state ledger and the database: it reads each processed output file
// and records the assigned document ID back onto the ledger entry.
//
// Usage:
//
//	db, err := database.Open(path, database.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	summary, err := db.LoadProcessed(ctx, rs, database.LoadOptions{})
package database
