// Package process runs the extraction stage: stored PDF -> pages -> chunks ->
// one processed JSON file per content hash.
//
// Per-file failures of the expected kinds (extraction errors, storage errors,
// non-PDF input) are written to the URL's ledger record and the batch moves
// on. Anything else is logged and left out of the record so that the next
// run tries the file again.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/docingest/internal/chunker"
	"github.com/nao1215/docingest/internal/extract"
	"github.com/nao1215/docingest/internal/metrics"
	"github.com/nao1215/docingest/internal/model"
	"github.com/nao1215/docingest/internal/state"
	"github.com/nao1215/docingest/internal/store"
)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF")

// ErrNotPDF marks stored content that is not a PDF.
var ErrNotPDF = errors.New("file does not start with a PDF header")

// StorageError is a failure to read a stored file or write processed output.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

// Error implements error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Summary counts what one process run did.
type Summary struct {
	Total      int
	Processed  int
	Current    int // already processed for the stored content
	Skipped    int // non-PDF
	Failed     int // error recorded on the record
	Ignored    int // no stored content (blocked or never fetched)
	Unexpected int // logged, not recorded
}

// Counts returns the summary as a map for run bookkeeping.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"total":      s.Total,
		"processed":  s.Processed,
		"current":    s.Current,
		"skipped":    s.Skipped,
		"failed":     s.Failed,
		"ignored":    s.Ignored,
		"unexpected": s.Unexpected,
	}
}

// Processor extracts and chunks stored documents.
type Processor struct {
	extractor extract.Extractor
	outputDir string
	force     bool
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Processor.
type Option func(*Processor)

// WithForce reprocesses records that already have output or a skip reason.
func WithForce(force bool) Option {
	return func(p *Processor) {
		p.force = force
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithMetrics sets an optional metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// New creates a Processor writing output files to outputDir.
func New(extractor extract.Extractor, outputDir string, opts ...Option) *Processor {
	p := &Processor{extractor: extractor, outputDir: outputDir}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run processes the records of urls in order. Only a done context aborts it.
func (p *Processor) Run(ctx context.Context, urls []string, rs *state.RunState) (Summary, error) {
	sum := Summary{Total: len(urls)}
	if err := os.MkdirAll(p.outputDir, 0750); err != nil {
		return sum, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		rec, ok := rs.Record(url)
		if !ok || !rec.Stored() {
			sum.Ignored++
			continue
		}
		if !p.force && p.current(rec) {
			sum.Current++
			continue
		}

		err := p.processRecord(ctx, rec)
		switch {
		case err == nil:
			sum.Processed++
			p.metrics.ObserveProcessed("ok")
			p.logger.Info("processed", "url", url, "chunks", *rec.ChunkCount)
		case ctx.Err() != nil:
			return sum, ctx.Err()
		case errors.Is(err, ErrNotPDF):
			rec.ClearProcessing()
			rec.ProcessSkip = model.SkipNonPDF
			sum.Skipped++
			p.metrics.ObserveProcessed("skipped")
			p.logger.Info("skipped non-PDF file", "url", url, "kind", rec.ContentKind)
		case isRecordable(err):
			rec.ClearProcessing()
			rec.ProcessError = err.Error()
			sum.Failed++
			p.metrics.ObserveProcessed("error")
			p.logger.Warn("processing failed", "url", url, "error", err)
		default:
			sum.Unexpected++
			p.logger.Error("unexpected processing error", "url", url, "error", err)
		}
	}

	p.logger.Info("process run complete",
		"total", sum.Total,
		"processed", sum.Processed,
		"current", sum.Current,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"unexpected", sum.Unexpected,
	)
	return sum, nil
}

// current reports whether rec needs no work for its stored content.
func (p *Processor) current(rec *model.URLRecord) bool {
	if rec.ProcessSkip != "" {
		return true
	}
	if !rec.Processed() {
		return false
	}
	_, err := os.Stat(rec.ProcessedOutputPath)
	return err == nil
}

// processRecord extracts, chunks, and writes output for one record.
func (p *Processor) processRecord(ctx context.Context, rec *model.URLRecord) error {
	header, err := store.ReadHeader(rec.StoragePath, len(pdfMagic))
	if err != nil {
		return &StorageError{Op: "read", Path: rec.StoragePath, Err: err}
	}
	if !bytes.Equal(header, pdfMagic) {
		return ErrNotPDF
	}

	res, err := p.extractor.Extract(ctx, rec.StoragePath)
	if err != nil {
		return err
	}

	fileHash, err := store.HashFile(rec.StoragePath)
	if err != nil {
		return &StorageError{Op: "hash", Path: rec.StoragePath, Err: err}
	}
	if fileHash != rec.ContentHash {
		p.logger.Warn("stored file does not match its recorded hash",
			"path", rec.StoragePath, "recorded", rec.ContentHash, "actual", fileHash)
	}

	doc := &model.ProcessedDocument{
		FileSHA256: fileHash,
		PageCount:  res.PageCount,
		Pages:      res.Pages,
		Chunks:     chunker.ChunkPages(res.Pages),
	}
	outPath := filepath.Join(p.outputDir, fileHash+".json")
	if err := WriteOutput(outPath, doc); err != nil {
		return &StorageError{Op: "write", Path: outPath, Err: err}
	}

	rec.ClearProcessing()
	rec.ProcessedOutputPath = outPath
	rec.SetChunkCount(len(doc.Chunks))
	return nil
}

// isRecordable reports whether err is a per-file failure kind that belongs in the ledger.
func isRecordable(err error) bool {
	var extractErr *extract.Error
	var storageErr *StorageError
	return errors.As(err, &extractErr) || errors.As(err, &storageErr)
}
