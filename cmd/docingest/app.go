package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/config"
	"github.com/nao1215/docingest/internal/crawler"
	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/fetch"
	"github.com/nao1215/docingest/internal/log"
	"github.com/nao1215/docingest/internal/metrics"
	"github.com/nao1215/docingest/internal/ratelimit"
	"github.com/nao1215/docingest/internal/state"
	"github.com/nao1215/docingest/internal/transport"
)

// buildConfig layers defaults, the config file, the environment and the
// explicitly set flags of cmd.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is only an error when the user named it.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.ApplyEnv(os.Getenv)

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app bundles what every stage command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	runID   string
}

// newApp builds and validates the configuration and sets up logging.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	runID := uuid.NewString()
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose).With(
		"run_id", runID,
		"command", cmd.Name(),
	)
	slog.SetDefault(logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		runID:   runID,
	}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// finish writes the metrics textfile if one is configured.
func (a *app) finish() {
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.logger.Warn("failed to write metrics", "path", a.cfg.MetricsFile, "error", err)
	}
}

// newFetcher returns a fetcher and the shared request limiter.
func (a *app) newFetcher() (*fetch.Fetcher, *ratelimit.Limiter, error) {
	client, err := transport.NewHTTPClient(transport.Options{
		Timeout:      a.cfg.Timeout,
		ProxyAddress: a.cfg.ProxyAddress,
		Headers:      a.cfg.Headers,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	f := fetch.New(client,
		fetch.WithUserAgent(a.cfg.UserAgent),
		fetch.WithMaxBodySize(a.cfg.MaxBodySize),
	)
	return f, ratelimit.New(a.cfg.RateLimit), nil
}

// resolveSeeds fills cfg.Seeds from args or the seeds file and validates them.
func (a *app) resolveSeeds(args []string) error {
	switch {
	case len(args) > 0:
		a.cfg.Seeds = args
	case len(a.cfg.Seeds) == 0 && a.cfg.SeedsFile != "":
		seeds, err := crawler.LoadSeeds(a.cfg.SeedsFile)
		if err != nil {
			return err
		}
		a.cfg.Seeds = seeds
	}
	return a.cfg.ValidateCrawl()
}

// newCrawler builds a crawler from the configured filter.
func (a *app) newCrawler(f crawler.Fetcher, limiter crawler.Waiter) *crawler.Crawler {
	filter := crawler.NewFilter(a.cfg.AllowedHosts, a.cfg.BlockedPathSubstrings, a.cfg.AllowedExtensions)
	return crawler.New(f, limiter,
		crawler.WithFilter(filter),
		crawler.WithLogger(a.logger),
		crawler.WithMetrics(a.metrics),
	)
}

// loadState reads the ledger. A missing ledger is empty.
func (a *app) loadState() (*state.RunState, error) {
	return state.Load(a.cfg.StatePath())
}

// saveState writes the ledger.
func (a *app) saveState(rs *state.RunState) error {
	if err := rs.Save(a.cfg.StatePath()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	a.logger.Debug("state saved", "path", a.cfg.StatePath(), "urls", len(rs.URLMeta))
	return nil
}

// loadURLs reads the URL list written by crawl.
func (a *app) loadURLs() ([]string, error) {
	urls, err := state.LoadURLs(a.cfg.URLsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no URL list at %s (run crawl first): %w", a.cfg.URLsPath(), err)
	}
	return urls, err
}

// openDB opens the corpus database, creating it when create is true.
func (a *app) openDB(create bool) (*database.CorpusDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = create
	db, err := database.Open(a.cfg.DBPath(), opts)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// dbExists reports whether the corpus database file is present.
func (a *app) dbExists() bool {
	_, err := os.Stat(a.cfg.DBPath())
	return err == nil
}
