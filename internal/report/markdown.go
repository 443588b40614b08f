package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs the status as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the status in Markdown format.
func (w *MarkdownWriter) Write(status *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, status)
	w.writeLedger(md, status)
	w.writeContentKinds(md, status)
	w.writeBlocked(md, status)
	w.writeDatabase(md, status.Database)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, status *Status) {
	md.H1("docingest status")
	md.PlainText("")
	md.PlainTextf("Generated %s", status.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")
}

func (w *MarkdownWriter) writeLedger(md *markdown.Markdown, status *Status) {
	md.H2("Ledger")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"URLs", strconv.Itoa(status.URLs)},
			{"Stored", strconv.Itoa(status.Stored)},
			{"Files", strconv.Itoa(status.Files)},
			{"Blocked", strconv.Itoa(status.TotalBlocked())},
			{"Processed", strconv.Itoa(status.Processed)},
			{"Chunks", strconv.Itoa(status.Chunks)},
			{"Skipped", strconv.Itoa(status.Skipped)},
			{"Process errors", strconv.Itoa(status.ProcessErrors)},
			{"Loaded", strconv.Itoa(status.Loaded)},
		},
	})
	md.PlainText("")

	switch {
	case status.ProcessErrors > 0:
		md.Warningf("%d document(s) failed to process. Rerun process after fixing the cause.", status.ProcessErrors)
	case status.Processed > status.Loaded:
		md.Note(fmt.Sprintf("%d processed document(s) are not loaded yet. Run load-db.", status.Processed-status.Loaded))
	case status.URLs == 0:
		md.Note("The ledger is empty. Run crawl and download first.")
	default:
		md.Tip("Every processed document is loaded.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeContentKinds(md *markdown.Markdown, status *Status) {
	if len(status.ContentKinds) == 0 {
		return
	}

	md.H2("Content kinds")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Stored content by kind"),
		piechart.WithShowData(true),
	)
	rows := make([][]string, 0, len(status.ContentKinds))
	for _, kind := range sortedKeys(status.ContentKinds) {
		n := status.ContentKinds[kind]
		rows = append(rows, []string{kind, strconv.Itoa(n)})
		chart.LabelAndIntValue(kind, uint64(n)) //nolint:gosec // counts are never negative
	}

	md.Table(markdown.TableSet{Header: []string{"Kind", "Count"}, Rows: rows})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeBlocked(md *markdown.Markdown, status *Status) {
	if len(status.Blocked) == 0 {
		return
	}

	md.H2("Blocked")
	md.PlainText("")
	items := make([]string, 0, len(status.Blocked))
	for _, reason := range sortedKeys(status.Blocked) {
		items = append(items, "`"+reason+"`: "+strconv.Itoa(status.Blocked[reason]))
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeDatabase(md *markdown.Markdown, db *DatabaseStatus) {
	if db == nil {
		return
	}

	md.H2("Database")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Table", "Rows"},
		Rows: [][]string{
			{"documents", strconv.Itoa(db.Documents)},
			{"chunks", strconv.Itoa(db.Chunks)},
			{"entities", strconv.Itoa(db.Entities)},
			{"entity_mentions", strconv.Itoa(db.Mentions)},
		},
	})
	md.PlainText("")

	if len(db.Runs) == 0 {
		return
	}
	md.H2("Recent runs")
	md.PlainText("")
	rows := make([][]string, 0, len(db.Runs))
	for _, r := range db.Runs {
		rows = append(rows, []string{
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Stage,
			r.FinishedAt.Sub(r.StartedAt).String(),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"Started", "Stage", "Duration"}, Rows: rows})
	md.PlainText("")
}
