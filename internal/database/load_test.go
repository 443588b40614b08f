package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/nao1215/docingest/internal/model"
	"github.com/nao1215/docingest/internal/process"
	"github.com/nao1215/docingest/internal/state"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// addProcessed writes a processed output file and registers a processed record for url.
func addProcessed(t *testing.T, rs *state.RunState, dir, url, sha string, chunks []model.Chunk) *model.URLRecord {
	t.Helper()

	path := filepath.Join(dir, sha+".json")
	doc := &model.ProcessedDocument{
		FileSHA256: sha,
		PageCount:  2,
		Chunks:     chunks,
	}
	if err := process.WriteOutput(path, doc); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}

	rec := rs.Ensure(url)
	rec.ContentHash = sha
	rec.StoragePath = filepath.Join(dir, sha)
	rec.SourceHost = "example.com"
	rec.ContentKind = model.KindPDF
	rec.ProcessedOutputPath = path
	rec.SetChunkCount(len(chunks))
	return rec
}

func TestLoadProcessed(t *testing.T) {
	t.Parallel()

	t.Run("loads processed records and stores doc IDs", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		dir := t.TempDir()
		rs := state.New()
		a := addProcessed(t, rs, dir, "https://example.com/a.pdf", "aaaa", testChunks())
		b := addProcessed(t, rs, dir, "https://example.com/b.pdf", "bbbb", testChunks()[:1])
		b.FinalURL = "https://example.com/final/b.pdf"

		summary, err := db.LoadProcessed(context.Background(), rs, LoadOptions{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("LoadProcessed() error = %v", err)
		}
		if summary.Loaded != 2 || summary.Failed != 0 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		if a.DocID == "" || b.DocID == "" || a.DocID == b.DocID {
			t.Fatalf("expected distinct doc IDs, got %q and %q", a.DocID, b.DocID)
		}

		doc, err := db.GetDocument(context.Background(), "https://example.com/final/b.pdf")
		if err != nil {
			t.Fatalf("GetDocument() error = %v", err)
		}
		if doc == nil {
			t.Fatal("document should be keyed by the final URL")
		}
		if strconv.FormatInt(doc.ID, 10) != b.DocID {
			t.Errorf("DocID = %q, want %d", b.DocID, doc.ID)
		}
		if doc.FileSHA256 != "bbbb" || doc.PageCount != 2 || doc.SourceHost != "example.com" {
			t.Errorf("unexpected document: %+v", doc)
		}

		counts, err := db.Counts(context.Background())
		if err != nil {
			t.Fatalf("Counts() error = %v", err)
		}
		if counts.Chunks != 4 {
			t.Errorf("Chunks = %d, want 4", counts.Chunks)
		}
	})

	t.Run("skips records that were not processed", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		dir := t.TempDir()
		rs := state.New()
		addProcessed(t, rs, dir, "https://example.com/a.pdf", "aaaa", testChunks())
		blocked := rs.Ensure("https://example.com/blocked.pdf")
		blocked.BlockedReason = model.BlockHTMLResponse
		skipped := addProcessed(t, rs, dir, "https://example.com/c.zip", "cccc", nil)
		skipped.ProcessSkip = model.SkipNonPDF

		summary, err := db.LoadProcessed(context.Background(), rs, LoadOptions{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("LoadProcessed() error = %v", err)
		}
		if summary.Total != 3 || summary.Loaded != 1 || summary.Skipped != 2 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		if blocked.DocID != "" || skipped.DocID != "" {
			t.Error("skipped records must not receive a doc ID")
		}
	})

	t.Run("missing output file is counted as a failure", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		dir := t.TempDir()
		rs := state.New()
		broken := addProcessed(t, rs, dir, "https://example.com/a.pdf", "aaaa", testChunks())
		broken.ProcessedOutputPath = filepath.Join(dir, "gone.json")
		ok := addProcessed(t, rs, dir, "https://example.com/b.pdf", "bbbb", testChunks())

		summary, err := db.LoadProcessed(context.Background(), rs, LoadOptions{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("LoadProcessed() error = %v", err)
		}
		if summary.Failed != 1 || summary.Loaded != 1 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		if broken.DocID != "" {
			t.Error("failed record must not receive a doc ID")
		}
		if ok.DocID == "" {
			t.Error("later records must still load after a failure")
		}
	})

	t.Run("max docs stops after the limit in URL order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		dir := t.TempDir()
		rs := state.New()
		c := addProcessed(t, rs, dir, "https://example.com/c.pdf", "cccc", testChunks())
		a := addProcessed(t, rs, dir, "https://example.com/a.pdf", "aaaa", testChunks())

		summary, err := db.LoadProcessed(context.Background(), rs, LoadOptions{MaxDocs: 1, Logger: quietLogger()})
		if err != nil {
			t.Fatalf("LoadProcessed() error = %v", err)
		}
		if summary.Loaded != 1 {
			t.Errorf("Loaded = %d, want 1", summary.Loaded)
		}
		if a.DocID == "" || c.DocID != "" {
			t.Errorf("expected only a.pdf to load, got a=%q c=%q", a.DocID, c.DocID)
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		rs := state.New()
		addProcessed(t, rs, t.TempDir(), "https://example.com/a.pdf", "aaaa", testChunks())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := db.LoadProcessed(ctx, rs, LoadOptions{Logger: quietLogger()}); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
