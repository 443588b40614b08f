package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/search"
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Send processed chunks to Meilisearch",
		Long: `Index builds one search record per chunk of every processed document,
keyed by "<sha256>-<page>-<chunk>", and sends them in batches to the
Meilisearch index. Records replace earlier ones with the same key.

When the corpus database exists, loaded documents carry the entities
recognized by the ner command.

The host and API key come from --meili-host/--meili-key, the config file
or MEILI_HOST/MEILI_MASTER_KEY.`,
		Args: cobra.NoArgs,
		RunE: runIndexCmd,
	}
	addIndexFlags(cmd)
	addMaxDocsFlag(cmd)
	addDatabaseFlag(cmd)
	return cmd
}

func runIndexCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	if err := a.cfg.ValidateIndex(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	rs, err := a.loadState()
	if err != nil {
		return err
	}

	var db *database.CorpusDB
	if a.dbExists() {
		db, err = a.openDB(false)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	svc, err := a.newSearchService(db)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	started := time.Now()
	sum, err := svc.IndexProcessed(ctx, rs)
	if err != nil {
		return err
	}
	if db != nil {
		a.recordRun(ctx, db, "index", started, sum.Counts())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d documents into %q\n",
		sum.Records, sum.Documents, a.cfg.IndexName)
	return nil
}

// newSearchService builds the index service. A nil db indexes without entities.
func (a *app) newSearchService(db *database.CorpusDB) (*search.Service, error) {
	indexer, err := search.NewMeiliIndexer(a.cfg.MeiliHost, a.cfg.MeiliAPIKey)
	if err != nil {
		return nil, err
	}
	opts := []search.Option{
		search.WithIndex(a.cfg.IndexName),
		search.WithBatchSize(a.cfg.BatchSize),
		search.WithMaxDocs(a.cfg.MaxDocs),
		search.WithLogger(a.logger),
	}
	if db != nil {
		opts = append(opts, search.WithEntities(db))
	}
	return search.NewService(indexer, opts...), nil
}
