// Package report summarizes the ingestion ledger for humans and scripts.
//
// Summarize turns a run state into a Status; the corpus database can add
// its table counts and recent stage runs. Writers render a Status:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured JSON
//   - MarkdownWriter: a Markdown document with tables and a mermaid chart
package report
