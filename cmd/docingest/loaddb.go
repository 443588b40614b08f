package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/database"
)

// NewLoadDBCmd creates the load-db command.
func NewLoadDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load-db",
		Short: "Load processed documents into the corpus database",
		Long: `Load-db upserts every processed document of the ledger, in URL order,
into the SQLite corpus database together with its chunks, and stores the
assigned document ID in the ledger. Each document is written in one
transaction; reloading a document replaces its chunks.`,
		Args: cobra.NoArgs,
		RunE: runLoadDBCmd,
	}
	addDatabaseFlag(cmd)
	addMaxDocsFlag(cmd)
	return cmd
}

func runLoadDBCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	rs, err := a.loadState()
	if err != nil {
		return err
	}
	db, err := a.openDB(true)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	started := time.Now()
	sum, err := db.LoadProcessed(ctx, rs, database.LoadOptions{
		MaxDocs: a.cfg.MaxDocs,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	if err := a.saveState(rs); err != nil {
		return err
	}
	a.recordRun(ctx, db, "load-db", started, sum.Counts())

	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d documents into %s (%d failed)\n", sum.Loaded, db.Path(), sum.Failed)
	return nil
}

// recordRun stores a stage run row. Failures are logged only.
func (a *app) recordRun(ctx context.Context, db *database.CorpusDB, stage string, started time.Time, counts map[string]int) {
	run := database.Run{
		ID:         a.runID + "/" + stage,
		Stage:      stage,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Counts:     counts,
	}
	if err := db.RecordRun(ctx, run); err != nil {
		a.logger.Warn("failed to record run", "stage", stage, "error", err)
	}
}
