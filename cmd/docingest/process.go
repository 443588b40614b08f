package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/extract"
	"github.com/nao1215/docingest/internal/process"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Extract and chunk downloaded PDFs",
		Long: `Process runs pdftotext on every stored PDF of <workdir>/urls.json, splits
the text into pages and paragraph-aligned chunks and writes
<workdir>/processed/<sha256>.json. Files without a PDF header are marked
non_pdf; documents already processed for the same content are skipped
unless --force is given.

pdftotext (poppler-utils) must be installed.`,
		Args: cobra.NoArgs,
		RunE: runProcessCmd,
	}
	cmd.Flags().BoolP("force", "f", false, "Reprocess documents whose output is already current")
	return cmd
}

func runProcessCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	p, err := a.newProcessor()
	if err != nil {
		return err
	}
	urls, err := a.loadURLs()
	if err != nil {
		return err
	}
	rs, err := a.loadState()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sum, err := p.Run(ctx, urls, rs)
	if err != nil {
		return err
	}
	if err := a.saveState(rs); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files (%d current, %d skipped, %d failed)\n",
		sum.Processed, sum.Current, sum.Skipped, sum.Failed)
	return nil
}

// newProcessor checks for pdftotext and builds a processor.
func (a *app) newProcessor() (*process.Processor, error) {
	extractor := extract.NewPDFToText()
	if err := extractor.CheckTool(); err != nil {
		return nil, err
	}
	return process.New(extractor, a.cfg.ProcessedDir(),
		process.WithForce(a.cfg.Force),
		process.WithLogger(a.logger),
		process.WithMetrics(a.metrics),
	), nil
}
