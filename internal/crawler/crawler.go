package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"sort"

	"github.com/nao1215/docingest/internal/fetch"
	"github.com/nao1215/docingest/internal/metrics"
)

// stageName labels crawl fetches in logs and metrics.
const stageName = "crawl"

// Fetcher performs one GET. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, v fetch.Validators) (*fetch.Result, error)
}

// Waiter spaces requests. *ratelimit.Limiter implements it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Crawler collects accepted links from seed pages.
type Crawler struct {
	fetcher Fetcher
	limiter Waiter
	filter  *Filter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithFilter replaces the default link filter.
func WithFilter(f *Filter) Option {
	return func(c *Crawler) {
		if f != nil {
			c.filter = f
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithMetrics sets an optional metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// New creates a Crawler.
func New(fetcher Fetcher, limiter Waiter, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		limiter: limiter,
		filter:  DefaultFilter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Crawl visits the seeds in order and returns the sorted union of accepted links.
// Seed failures are skipped. The only error is a done context, in which case
// the links gathered so far are discarded.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) ([]string, error) {
	accepted := make(map[string]struct{})

	for i, seed := range seeds {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		c.logger.Info("crawling seed", "seed", seed, "index", i+1, "total", len(seeds))

		res, err := c.fetcher.Fetch(ctx, seed, fetch.Validators{})
		c.metrics.ObserveFetch(stageName, fetch.OutcomeOf(res, err).String())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("seed fetch failed", "seed", seed, "error", err)
			continue
		}
		if res.Outcome != fetch.Fresh {
			c.logger.Warn("seed returned no content", "seed", seed, "status", res.StatusCode)
			continue
		}

		parser, err := NewParser(res.FinalURL)
		if err != nil {
			c.logger.Warn("invalid final URL", "seed", seed, "final_url", res.FinalURL, "error", err)
			continue
		}
		links, err := parser.Links(bytes.NewReader(res.Body))
		if err != nil {
			c.logger.Warn("failed to parse seed page", "seed", seed, "error", err)
			continue
		}

		kept := 0
		for _, link := range links {
			if !c.filter.Allow(link) {
				continue
			}
			if _, seen := accepted[link]; !seen {
				accepted[link] = struct{}{}
				kept++
			}
		}
		c.logger.Debug("seed crawled", "seed", seed, "links", len(links), "new", kept)
	}

	out := make([]string, 0, len(accepted))
	for link := range accepted {
		out = append(out, link)
	}
	sort.Strings(out)
	c.metrics.AddLinks(len(out))
	return out, nil
}
