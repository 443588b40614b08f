package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/config"
)

// addHTTPFlags registers the outbound request flags of crawl, download and run.
func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header sent with every request")
	cmd.Flags().Duration("rate-limit", config.DefaultRateLimit, "Minimum delay between two requests (0 disables throttling)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for one request including redirects")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address in host:port form")
}

// addCrawlFlags registers seed and link filter flags.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("seeds", "s", "", "File listing one seed URL per line")
	cmd.Flags().StringSlice("allowed-host", nil, "Allowed link host (repeatable, default: www.justice.gov,justice.gov)")
	cmd.Flags().StringSlice("blocked-path-substring", nil, "Reject links whose path contains this substring (repeatable)")
	cmd.Flags().StringSlice("allowed-ext", nil, "Allowed link path extension (repeatable, default: .pdf,.zip)")
}

// addDatabaseFlag registers the corpus database path flag.
func addDatabaseFlag(cmd *cobra.Command) {
	cmd.Flags().String("database", "", "Corpus database path (default: <workdir>/docingest.db, env DOCINGEST_DATABASE)")
}

// addIndexFlags registers the search index flags.
func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("meili-host", "", "Meilisearch host (env MEILI_HOST)")
	cmd.Flags().String("meili-key", "", "Meilisearch API key (env MEILI_MASTER_KEY)")
	cmd.Flags().String("index", config.DefaultIndexName, "Search index name")
	cmd.Flags().Int("batch-size", config.DefaultBatchSize, "Chunk records per index request")
}

// addMaxDocsFlag registers the document limit of load-db and index.
func addMaxDocsFlag(cmd *cobra.Command) {
	cmd.Flags().Int("max-docs", 0, "Stop after this many documents (0 means no limit)")
}

// addNERFlags registers the entity recognition flags.
func addNERFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", config.DefaultNERLimit, "Maximum number of chunks to process")
	cmd.Flags().Int("offset", 0, "Number of chunks to skip, in chunk ID order")
	cmd.Flags().Int("workers", config.DefaultNERWorkers, "Concurrent recognizer calls")
	cmd.Flags().Bool("all-languages", false, "Recognize entities in non-English chunks too")
}

// applyFlags overlays every flag the user set explicitly onto cfg.
// Flags that a command does not define are ignored.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	var err error

	str := func(name string, dst *string) {
		if err == nil && fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	integer := func(name string, dst *int) {
		if err == nil && fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, err = fs.GetInt(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if err == nil && fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, err = fs.GetBool(name)
		}
	}
	strs := func(name string, dst *[]string) {
		if err == nil && fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, err = fs.GetStringSlice(name)
		}
	}

	boolean("verbose", &cfg.Verbose)
	str("workdir", &cfg.WorkDir)
	str("metrics-file", &cfg.MetricsFile)

	str("user-agent", &cfg.UserAgent)
	str("proxy", &cfg.ProxyAddress)
	if err == nil && fs.Lookup("rate-limit") != nil && fs.Changed("rate-limit") {
		cfg.RateLimit, err = fs.GetDuration("rate-limit")
	}
	if err == nil && fs.Lookup("timeout") != nil && fs.Changed("timeout") {
		cfg.Timeout, err = fs.GetDuration("timeout")
	}

	str("seeds", &cfg.SeedsFile)
	strs("allowed-host", &cfg.AllowedHosts)
	strs("blocked-path-substring", &cfg.BlockedPathSubstrings)
	strs("allowed-ext", &cfg.AllowedExtensions)

	boolean("force", &cfg.Force)
	str("database", &cfg.DatabasePath)
	integer("max-docs", &cfg.MaxDocs)

	str("meili-host", &cfg.MeiliHost)
	str("meili-key", &cfg.MeiliAPIKey)
	str("index", &cfg.IndexName)
	integer("batch-size", &cfg.BatchSize)

	integer("limit", &cfg.NERLimit)
	integer("offset", &cfg.NEROffset)
	integer("workers", &cfg.NERWorkers)
	boolean("all-languages", &cfg.AllLanguages)

	boolean("json", &cfg.JSONReport)
	boolean("markdown", &cfg.MarkdownReport)

	return err
}
