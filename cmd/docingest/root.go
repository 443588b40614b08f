package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docingest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docingest",
		Short: "Crawl, download and chunk public document releases",
		Long: `docingest builds a searchable corpus from public document listings.

Each stage reads and updates a run state ledger in the work directory, so
stages can be rerun independently and unchanged files are never fetched or
processed twice:

  crawl     discover document URLs on listing pages
  download  fetch documents into the content store (conditional requests)
  process   extract PDF text with pdftotext and split it into chunks
  load-db   load documents and chunks into the SQLite corpus database
  index     send chunks to a Meilisearch index
  ner       recognize named entities in stored chunks

Only one docingest process may use a work directory at a time.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .docingest in current or home directory)")
	cmd.PersistentFlags().StringP("workdir", "w", "",
		"Work directory for the ledger, downloads and database (default: XDG data dir)")
	cmd.PersistentFlags().String("metrics-file", "",
		"Write Prometheus counters to this textfile when the command ends")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewLoadDBCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewNERCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
