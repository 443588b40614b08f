package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/ner"
)

// NewNERCmd creates the ner command.
func NewNERCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ner",
		Short: "Recognize named entities in stored chunks",
		Long: `Ner reads a window of chunks from the corpus database in chunk ID order,
recognizes people, organizations and places, and stores each entity once
with its mentions. Rerunning the same window adds nothing new.

Chunks that are not English are skipped unless --all-languages is given.

Examples:
  docingest ner
  docingest ner --limit 5000 --offset 1000 --workers 4`,
		Args: cobra.NoArgs,
		RunE: runNERCmd,
	}
	addNERFlags(cmd)
	addDatabaseFlag(cmd)
	return cmd
}

func runNERCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	db, err := a.openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	started := time.Now()
	sum, err := a.newNERRunner(db).Run(ctx, a.cfg.NERLimit, a.cfg.NEROffset)
	if err != nil {
		return err
	}
	a.recordRun(ctx, db, "ner", started, sum.Counts())

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d chunks: %d mentions, %d skipped, %d failed\n",
		sum.Chunks, sum.Mentions, sum.Skipped, sum.Failed)
	return nil
}

// newNERRunner builds an entity recognition runner over db.
func (a *app) newNERRunner(db *database.CorpusDB) *ner.Runner {
	opts := []ner.Option{
		ner.WithWorkers(a.cfg.NERWorkers),
		ner.WithLogger(a.logger),
	}
	if a.cfg.AllLanguages {
		opts = append(opts, ner.WithLanguageFilter(nil))
	}
	return ner.NewRunner(db, ner.NewProseRecognizer(), opts...)
}
