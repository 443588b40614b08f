package ner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/model"
)

// DefaultLimit is the number of chunks processed per run.
const DefaultLimit = 1000

// Store is the part of the corpus database the runner needs.
// *database.CorpusDB implements it.
type Store interface {
	ListChunks(ctx context.Context, limit, offset int) ([]database.StoredChunk, error)
	SaveMentions(ctx context.Context, chunkID int64, mentions []model.Mention) error
}

// Summary counts the outcome of a recognition run.
type Summary struct {
	Chunks   int
	Skipped  int
	Failed   int
	Mentions int
}

// Counts returns the summary as a map for run bookkeeping.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"chunks":   s.Chunks,
		"skipped":  s.Skipped,
		"failed":   s.Failed,
		"mentions": s.Mentions,
	}
}

// Runner recognizes entities in a window of stored chunks and saves the mentions.
type Runner struct {
	store      Store
	recognizer Recognizer
	filter     LanguageFilter
	workers    int
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent recognizer calls. Defaults to 1.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLanguageFilter replaces the English filter. A nil filter accepts every chunk.
func WithLanguageFilter(f LanguageFilter) Option {
	return func(r *Runner) {
		if f == nil {
			f = acceptAll{}
		}
		r.filter = f
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner. Without WithLanguageFilter it skips non-English chunks.
func NewRunner(store Store, recognizer Recognizer, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		recognizer: recognizer,
		workers:    1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.filter == nil {
		r.filter = NewEnglishFilter()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run processes up to limit chunks starting at offset, in chunk ID order.
// Recognition runs concurrently; mentions are written sequentially.
func (r *Runner) Run(ctx context.Context, limit, offset int) (Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	chunks, err := r.store.ListChunks(ctx, limit, offset)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list chunks: %w", err)
	}

	var todo []database.StoredChunk
	for _, c := range chunks {
		if c.Text != "" {
			todo = append(todo, c)
		}
	}

	r.logger.Info("recognizing entities", "chunks", len(todo), "offset", offset, "workers", r.workers)

	batch := &batchRecognizer{
		recognizer:  r.recognizer,
		filter:      r.filter,
		concurrency: r.workers,
		logger:      r.logger,
	}
	results, err := batch.recognize(ctx, todo)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, res := range results {
		summary.Chunks++
		switch {
		case res.Skipped:
			summary.Skipped++
			continue
		case res.Err != nil:
			summary.Failed++
			continue
		}
		if err := r.store.SaveMentions(ctx, res.Chunk.ID, res.Mentions); err != nil {
			return summary, fmt.Errorf("failed to save mentions for chunk %d: %w", res.Chunk.ID, err)
		}
		summary.Mentions += len(res.Mentions)
	}
	return summary, nil
}
