package database

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/docingest/internal/model"
	"github.com/nao1215/docingest/internal/process"
	"github.com/nao1215/docingest/internal/state"
)

// LoadSummary counts the outcome of a load run.
type LoadSummary struct {
	Total   int
	Loaded  int
	Skipped int
	Failed  int
}

// Counts returns the summary as a map for run bookkeeping.
func (s LoadSummary) Counts() map[string]int {
	return map[string]int{
		"total":   s.Total,
		"loaded":  s.Loaded,
		"skipped": s.Skipped,
		"failed":  s.Failed,
	}
}

// LoadOptions configures LoadProcessed.
type LoadOptions struct {
	// MaxDocs stops the run after this many loaded documents. Zero means no limit.
	MaxDocs int

	// Logger receives per-URL progress. Nil uses slog.Default.
	Logger *slog.Logger
}

// LoadProcessed loads every processed record of rs into the database,
// in URL order, and stores the resulting document ID on the record.
// A failing document is logged and counted; it does not stop the run.
func (cdb *CorpusDB) LoadProcessed(ctx context.Context, rs *state.RunState, opts LoadOptions) (LoadSummary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var summary LoadSummary
	for _, u := range rs.URLs() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if opts.MaxDocs > 0 && summary.Loaded >= opts.MaxDocs {
			break
		}

		rec, _ := rs.Record(u)
		summary.Total++
		if !loadable(rec) {
			summary.Skipped++
			continue
		}

		id, err := cdb.loadRecord(ctx, u, rec)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logger.Warn("failed to load document", "url", u, "error", err)
			summary.Failed++
			continue
		}

		rec.DocID = strconv.FormatInt(id, 10)
		summary.Loaded++
		logger.Debug("loaded document", "url", u, "doc_id", rec.DocID)
	}
	return summary, nil
}

func (cdb *CorpusDB) loadRecord(ctx context.Context, rawURL string, rec *model.URLRecord) (int64, error) {
	out, err := process.ReadOutput(rec.ProcessedOutputPath)
	if err != nil {
		return 0, err
	}

	source := rec.FinalURL
	if source == "" {
		source = rawURL
	}
	host := rec.SourceHost
	if host == "" {
		if parsed, err := url.Parse(source); err == nil {
			host = strings.ToLower(parsed.Hostname())
		}
	}
	hash := out.FileSHA256
	if hash == "" {
		hash = rec.ContentHash
	}

	return cdb.LoadDocument(ctx, Document{
		SourceURL:  source,
		SourceHost: host,
		FileSHA256: hash,
		PageCount:  out.PageCount,
	}, out.Chunks)
}

// loadable reports whether the record has processed output without a skip or error.
func loadable(rec *model.URLRecord) bool {
	return rec.Processed() && rec.ProcessError == "" && rec.ProcessSkip == ""
}
