package ner

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/model"
)

// Result is the recognition outcome for one chunk.
type Result struct {
	Chunk    database.StoredChunk
	Mentions []model.Mention

	// Skipped is set when the language filter rejected the chunk.
	Skipped bool

	// Err is the recognizer error, if any.
	Err error
}

// batchRecognizer runs the recognizer over many chunks with bounded concurrency.
type batchRecognizer struct {
	recognizer  Recognizer
	filter      LanguageFilter
	concurrency int
	logger      *slog.Logger
}

// recognize returns one result per chunk, in chunk order.
// A recognizer error is stored on the result and does not stop the batch;
// only cancellation of ctx does.
func (b *batchRecognizer) recognize(ctx context.Context, chunks []database.StoredChunk) ([]Result, error) {
	results := make([]Result, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			results[i].Chunk = chunk
			if !b.filter.Accept(chunk.Text) {
				results[i].Skipped = true
				return nil
			}

			entities, err := b.recognizer.Recognize(ctx, chunk.Text)
			if err != nil {
				b.logger.Warn("recognition failed", "chunk_id", chunk.ID, "error", err)
				results[i].Err = err
				return nil
			}
			results[i].Mentions = Mentions(chunk.Text, entities)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
