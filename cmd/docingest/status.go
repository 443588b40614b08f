package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/docingest/internal/report"
)

// recentRuns is the number of stage runs shown by status.
const recentRuns = 10

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the ledger and the corpus database",
		Long: `Status counts the ledger entries by content kind, blocked reason and
processing outcome. When the corpus database exists, its table sizes and
the latest stage runs are included.

Examples:
  docingest status
  docingest status --json
  docingest status --markdown -o status.md`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "", "Write the status to this file instead of stdout")
	addDatabaseFlag(cmd)
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	rs, err := a.loadState()
	if err != nil {
		return err
	}
	status := report.Summarize(rs)

	if a.dbExists() {
		db, err := a.openDB(false)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		counts, err := db.Counts(ctx)
		if err != nil {
			return err
		}
		runs, err := db.RecentRuns(ctx, recentRuns)
		if err != nil {
			return err
		}
		status.Database = report.NewDatabaseStatus(db.Path(), counts, runs)
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	out, closeOut, err := openOutput(cmd.OutOrStdout(), outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	format := report.FormatSimple
	switch {
	case a.cfg.JSONReport:
		format = report.FormatJSON
	case a.cfg.MarkdownReport:
		format = report.FormatMarkdown
	}
	_, err = report.NewWriter(format, out).Write(status)
	return err
}

// openOutput returns path opened for writing, or stdout when path is empty.
func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // operator supplied output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
