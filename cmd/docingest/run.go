package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/config"
	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/pipeline"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seed-url...]",
		Short: "Run every stage from crawl to load-db",
		Long: `Run executes crawl, download, process and load-db in order, saving the
ledger after each stage. The index stage is added when search credentials
are configured, and the ner stage with --ner.

Without seeds the crawl stage is skipped and the existing URL list is used.

Examples:
  docingest run --seeds seeds.txt
  MEILI_HOST=http://localhost:7700 MEILI_MASTER_KEY=... docingest run --seeds seeds.txt --ner`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}
	addHTTPFlags(cmd)
	addCrawlFlags(cmd)
	addDatabaseFlag(cmd)
	addMaxDocsFlag(cmd)
	addIndexFlags(cmd)
	addNERFlags(cmd)
	cmd.Flags().BoolP("force", "f", false, "Reprocess documents whose output is already current")
	cmd.Flags().Bool("ner", false, "Recognize entities after loading")
	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	withNER, err := cmd.Flags().GetBool("ner")
	if err != nil {
		return err
	}

	crawl := true
	if err := a.resolveSeeds(args); err != nil {
		if !errors.Is(err, config.ErrNoSeeds) {
			return err
		}
		crawl = false
	}

	var urls []string
	if !crawl {
		if urls, err = a.loadURLs(); err != nil {
			return fmt.Errorf("no seeds and %w", err)
		}
	}

	rs, err := a.loadState()
	if err != nil {
		return err
	}
	db, err := a.openDB(true)
	if err != nil {
		return err
	}
	defer db.Close()

	f, limiter, err := a.newFetcher()
	if err != nil {
		return err
	}
	d, err := a.newDownloaderWith(f, limiter)
	if err != nil {
		return err
	}
	proc, err := a.newProcessor()
	if err != nil {
		return err
	}

	p := pipeline.New(
		pipeline.WithLogger(a.logger),
		pipeline.WithCheckpoint(func(run *pipeline.Run) error {
			return a.saveState(run.State)
		}),
		pipeline.WithRunRecorder(db),
	)
	if crawl {
		p.AddStep(pipeline.NewCrawlStep(a.newCrawler(f, limiter), a.cfg.Seeds, a.cfg.URLsPath()))
	}
	p.AddSteps(
		pipeline.NewDownloadStep(d),
		pipeline.NewProcessStep(proc),
		pipeline.NewLoadStep(db, database.LoadOptions{MaxDocs: a.cfg.MaxDocs, Logger: a.logger}),
	)
	if a.cfg.SearchConfigured() {
		svc, err := a.newSearchService(db)
		if err != nil {
			return err
		}
		p.AddStep(pipeline.NewIndexStep(svc))
	} else {
		a.logger.Info("search credentials not set, skipping index stage")
	}
	if withNER {
		p.AddStep(pipeline.NewNERStep(a.newNERRunner(db), a.cfg.NERLimit, a.cfg.NEROffset))
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	run := pipeline.NewRun(rs, urls)
	run.ID = a.runID
	execErr := p.Execute(ctx, run)

	printRunSummary(cmd, run)
	if execErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "run %s stopped after [%s]\n", run.ID, strings.Join(run.Completed, ", "))
	}
	return execErr
}

// printRunSummary prints the counters of every completed step.
func printRunSummary(cmd *cobra.Command, run *pipeline.Run) {
	out := cmd.OutOrStdout()
	for _, name := range run.Completed {
		counts := run.Counts[name]
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
		}
		fmt.Fprintf(out, "%-8s %s\n", name, strings.Join(parts, " "))
	}
}
