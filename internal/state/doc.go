// Package state owns the run-state ledger and the URL list files.
//
// The ledger is the single source of truth for what has been fetched and
// processed per URL. A command loads it once, hands the *RunState to each
// stage, and saves it after every stage with an atomic replace, so the
// on-disk file is either the previous complete ledger or the new one.
//
// Concurrent invocations against the same state file are not supported.
// Two processes would each save their own view and the last writer wins.
package state
