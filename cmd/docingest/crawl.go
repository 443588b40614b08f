package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/state"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Discover document URLs on listing pages",
		Long: `Crawl fetches every seed listing page, resolves its anchors against the
page's final URL and keeps the links that pass the host, path and extension
filters. The sorted URL list replaces <workdir>/urls.json.

Seeds that fail to fetch are skipped.

Examples:
  docingest crawl --seeds seeds.txt
  docingest crawl https://www.justice.gov/epstein/doj-disclosures
  docingest crawl --allowed-host example.org --allowed-ext .pdf --seeds seeds.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}
	addHTTPFlags(cmd)
	addCrawlFlags(cmd)
	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	if err := a.resolveSeeds(args); err != nil {
		return err
	}

	f, limiter, err := a.newFetcher()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	urls, err := a.newCrawler(f, limiter).Crawl(ctx, a.cfg.Seeds)
	if err != nil {
		return err
	}
	if err := state.SaveURLs(a.cfg.URLsPath(), urls); err != nil {
		return fmt.Errorf("failed to save URL list: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d URLs to %s\n", len(urls), a.cfg.URLsPath())
	return nil
}
