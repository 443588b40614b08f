// Package downloader runs the conditional-fetch download stage over a URL list.
//
// For every URL, in input order, it sends the validators stored in the ledger,
// classifies fresh content by sniffing, applies the content policy, stores
// accepted bytes in the content store, and updates the URL's record. Failed
// fetches and 304 answers leave the record untouched so the next run retries.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/docingest/internal/fetch"
	"github.com/nao1215/docingest/internal/metrics"
	"github.com/nao1215/docingest/internal/model"
	"github.com/nao1215/docingest/internal/state"
	"github.com/nao1215/docingest/internal/store"
)

const stageName = "download"

// DefaultAgeVerifyMarkers are final URL substrings that indicate an age gate.
var DefaultAgeVerifyMarkers = []string{"/age-verify"}

// Fetcher performs one conditional GET. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, v fetch.Validators) (*fetch.Result, error)
}

// Waiter spaces requests. *ratelimit.Limiter implements it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Summary counts what one batch did.
type Summary struct {
	Total       int
	Stored      int // new file written
	Unchanged   int // fresh fetch of bytes already in the store
	NotModified int
	Blocked     int
	Failed      int
}

// Counts returns the summary as a map for run bookkeeping.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"total":        s.Total,
		"stored":       s.Stored,
		"unchanged":    s.Unchanged,
		"not_modified": s.NotModified,
		"blocked":      s.Blocked,
		"failed":       s.Failed,
	}
}

// Downloader fetches documents into the content store.
type Downloader struct {
	fetcher        Fetcher
	limiter        Waiter
	store          *store.Store
	ageMarkers     []string
	documentSuffix []string
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithAgeVerifyMarkers replaces the final URL substrings that block a response.
func WithAgeVerifyMarkers(markers []string) Option {
	return func(d *Downloader) {
		d.ageMarkers = markers
	}
}

// WithDocumentExtensions limits which URLs are expected to return a binary
// document. An HTML body is only blocked for those URLs. With no extensions,
// which is the default, every URL is expected to be a document.
func WithDocumentExtensions(exts []string) Option {
	return func(d *Downloader) {
		d.documentSuffix = d.documentSuffix[:0]
		for _, e := range exts {
			if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
				d.documentSuffix = append(d.documentSuffix, e)
			}
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// WithMetrics sets an optional metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Downloader) {
		d.metrics = m
	}
}

// New creates a Downloader.
func New(fetcher Fetcher, limiter Waiter, st *store.Store, opts ...Option) *Downloader {
	d := &Downloader{
		fetcher:    fetcher,
		limiter:    limiter,
		store:      st,
		ageMarkers: DefaultAgeVerifyMarkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Run downloads urls in order and updates rs in memory. The caller persists
// rs once the batch returns. An error is returned only when ctx is done or the
// content store fails; rs may then hold partial progress that must not be saved.
func (d *Downloader) Run(ctx context.Context, urls []string, rs *state.RunState) (Summary, error) {
	sum := Summary{Total: len(urls)}

	for i, rawURL := range urls {
		if err := d.limiter.Wait(ctx); err != nil {
			return sum, err
		}

		var validators fetch.Validators
		if rec, ok := rs.Record(rawURL); ok {
			validators = fetch.Validators{ETag: rec.ETag, LastModified: rec.LastModified}
		}

		d.logger.Debug("downloading", "url", rawURL, "index", i+1, "total", len(urls),
			"conditional", !validators.IsZero())

		res, err := d.fetcher.Fetch(ctx, rawURL, validators)
		outcome := fetch.OutcomeOf(res, err)
		d.metrics.ObserveFetch(stageName, outcome.String())

		switch outcome {
		case fetch.Failed:
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
			d.logger.Warn("fetch failed", "url", rawURL, "error", err)
			continue
		case fetch.NotModified:
			// A 304 without validators is not meaningful; both cases keep the record.
			sum.NotModified++
			d.logger.Debug("not modified", "url", rawURL, "had_validators", !validators.IsZero())
			continue
		}

		stored, err := d.apply(rawURL, res, rs)
		if err != nil {
			return sum, err
		}
		switch stored {
		case resultBlocked:
			sum.Blocked++
		case resultWritten:
			sum.Stored++
		case resultUnchanged:
			sum.Unchanged++
		}
	}

	d.logger.Info("download batch complete",
		"total", sum.Total,
		"stored", sum.Stored,
		"unchanged", sum.Unchanged,
		"not_modified", sum.NotModified,
		"blocked", sum.Blocked,
		"failed", sum.Failed,
	)
	return sum, nil
}

type applyResult int

const (
	resultBlocked applyResult = iota
	resultWritten
	resultUnchanged
)

// apply classifies a fresh response and updates the record for rawURL.
func (d *Downloader) apply(rawURL string, res *fetch.Result, rs *state.RunState) (applyResult, error) {
	kind := model.Sniff(res.Body)
	rec := rs.Ensure(rawURL)

	rec.FinalURL = res.FinalURL
	rec.ETag = res.Header("etag")
	rec.LastModified = res.Header("last-modified")
	rec.SourceHost = hostOf(res.FinalURL)
	rec.ContentKind = kind

	if reason := d.blockReason(rawURL, res.FinalURL, kind); reason != "" {
		rec.BlockedReason = reason
		rec.ContentHash = ""
		rec.StoragePath = ""
		rec.ClearProcessing()
		d.metrics.ObserveBlocked(string(reason))
		d.logger.Warn("response blocked", "url", rawURL, "final_url", res.FinalURL, "reason", reason)
		return resultBlocked, nil
	}

	entry, written, err := d.store.Put(res.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to store content for %s: %w", rawURL, err)
	}
	d.metrics.ObserveStore(written, len(res.Body))

	if rec.ContentHash != entry.Hash {
		// Outputs of later stages belong to the previous content.
		rec.ClearProcessing()
	}
	rec.BlockedReason = ""
	rec.ContentHash = entry.Hash
	rec.StoragePath = entry.Path
	rs.AddFile(entry.Hash, entry.Path)

	if written {
		d.logger.Info("stored", "url", rawURL, "sha256", entry.Hash, "bytes", len(res.Body), "kind", kind)
		return resultWritten, nil
	}
	d.logger.Debug("content already stored", "url", rawURL, "sha256", entry.Hash)
	return resultUnchanged, nil
}

// blockReason applies the content policy to a fresh response.
func (d *Downloader) blockReason(rawURL, finalURL string, kind model.ContentKind) model.BlockReason {
	for _, marker := range d.ageMarkers {
		if marker != "" && strings.Contains(finalURL, marker) {
			return model.BlockAgeVerify
		}
	}
	if kind == model.KindHTML && d.expectsDocument(rawURL) {
		return model.BlockHTMLResponse
	}
	return ""
}

// expectsDocument reports whether rawURL should return a binary document.
func (d *Downloader) expectsDocument(rawURL string) bool {
	if len(d.documentSuffix) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := strings.ToLower(u.EscapedPath())
	for _, ext := range d.documentSuffix {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// hostOf returns the lower-cased host of rawURL, or "" if it cannot be parsed.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
