package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/docingest/internal/crawler"
	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/downloader"
	"github.com/nao1215/docingest/internal/ner"
	"github.com/nao1215/docingest/internal/process"
	"github.com/nao1215/docingest/internal/search"
	"github.com/nao1215/docingest/internal/state"
)

// CrawlStep discovers document URLs from seed pages and replaces the run's URL list.
type CrawlStep struct {
	crawler  *crawler.Crawler
	seeds    []string
	urlsPath string
}

// NewCrawlStep creates a crawl step. When urlsPath is set the discovered
// URLs are also written there.
func NewCrawlStep(c *crawler.Crawler, seeds []string, urlsPath string) *CrawlStep {
	return &CrawlStep{crawler: c, seeds: seeds, urlsPath: urlsPath}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, run *Run) error {
	urls, err := s.crawler.Crawl(ctx, s.seeds)
	if err != nil {
		return err
	}
	if s.urlsPath != "" {
		if err := state.SaveURLs(s.urlsPath, urls); err != nil {
			return fmt.Errorf("failed to save URL list: %w", err)
		}
	}
	run.URLs = urls
	run.Counts[s.Name()] = map[string]int{"seeds": len(s.seeds), "urls": len(urls)}
	return nil
}

// DownloadStep fetches the run's URLs into the content store.
type DownloadStep struct {
	downloader *downloader.Downloader
}

// NewDownloadStep creates a download step.
func NewDownloadStep(d *downloader.Downloader) *DownloadStep {
	return &DownloadStep{downloader: d}
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do executes the download step.
func (s *DownloadStep) Do(ctx context.Context, run *Run) error {
	summary, err := s.downloader.Run(ctx, run.URLs, run.State)
	if err != nil {
		return err
	}
	run.Counts[s.Name()] = summary.Counts()
	return nil
}

// ProcessStep extracts and chunks the stored documents of the run's URLs.
type ProcessStep struct {
	processor *process.Processor
}

// NewProcessStep creates a process step.
func NewProcessStep(p *process.Processor) *ProcessStep {
	return &ProcessStep{processor: p}
}

// Name returns the step name.
func (s *ProcessStep) Name() string {
	return "process"
}

// Do executes the process step.
func (s *ProcessStep) Do(ctx context.Context, run *Run) error {
	summary, err := s.processor.Run(ctx, run.URLs, run.State)
	if err != nil {
		return err
	}
	run.Counts[s.Name()] = summary.Counts()
	return nil
}

// LoadStep loads processed documents into the corpus database.
type LoadStep struct {
	db   *database.CorpusDB
	opts database.LoadOptions
}

// NewLoadStep creates a load step.
func NewLoadStep(db *database.CorpusDB, opts database.LoadOptions) *LoadStep {
	return &LoadStep{db: db, opts: opts}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load-db"
}

// Do executes the load step.
func (s *LoadStep) Do(ctx context.Context, run *Run) error {
	summary, err := s.db.LoadProcessed(ctx, run.State, s.opts)
	if err != nil {
		return err
	}
	run.Counts[s.Name()] = summary.Counts()
	return nil
}

// IndexStep sends processed chunks to the search index.
type IndexStep struct {
	service *search.Service
}

// NewIndexStep creates an index step.
func NewIndexStep(svc *search.Service) *IndexStep {
	return &IndexStep{service: svc}
}

// Name returns the step name.
func (s *IndexStep) Name() string {
	return "index"
}

// Do executes the index step.
func (s *IndexStep) Do(ctx context.Context, run *Run) error {
	summary, err := s.service.IndexProcessed(ctx, run.State)
	if err != nil {
		return err
	}
	run.Counts[s.Name()] = summary.Counts()
	return nil
}

// NERStep recognizes entities in a window of stored chunks.
type NERStep struct {
	runner *ner.Runner
	limit  int
	offset int
}

// NewNERStep creates an entity recognition step.
func NewNERStep(r *ner.Runner, limit, offset int) *NERStep {
	return &NERStep{runner: r, limit: limit, offset: offset}
}

// Name returns the step name.
func (s *NERStep) Name() string {
	return "ner"
}

// Do executes the entity recognition step.
func (s *NERStep) Do(ctx context.Context, run *Run) error {
	summary, err := s.runner.Run(ctx, s.limit, s.offset)
	if err != nil {
		return err
	}
	run.Counts[s.Name()] = summary.Counts()
	return nil
}
