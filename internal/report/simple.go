package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const ruleWidth = 60

// SimpleWriter outputs a plain text status for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints sections that have no entries.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the status in human-readable format.
func (w *SimpleWriter) Write(status *Status) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, status)
	w.writeLedger(&sb, status)
	w.writeCounts(&sb, "CONTENT KINDS", status.ContentKinds)
	w.writeCounts(&sb, "BLOCKED", status.Blocked)
	w.writeDatabase(&sb, status.Database)

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, status *Status) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("DOCINGEST STATUS\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "Generated: %s\n\n", status.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}

func (w *SimpleWriter) writeLedger(sb *strings.Builder, status *Status) {
	writeSection(sb, "LEDGER")
	fmt.Fprintf(sb, "  URLs:           %d\n", status.URLs)
	fmt.Fprintf(sb, "  Stored:         %d\n", status.Stored)
	fmt.Fprintf(sb, "  Files:          %d\n", status.Files)
	fmt.Fprintf(sb, "  Blocked:        %d\n", status.TotalBlocked())
	fmt.Fprintf(sb, "  Processed:      %d (%d chunks)\n", status.Processed, status.Chunks)
	fmt.Fprintf(sb, "  Skipped:        %d\n", status.Skipped)
	fmt.Fprintf(sb, "  Process errors: %d\n", status.ProcessErrors)
	fmt.Fprintf(sb, "  Loaded:         %d\n", status.Loaded)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, title)
	if len(counts) == 0 {
		sb.WriteString("  none\n\n")
		return
	}
	for _, k := range sortedKeys(counts) {
		fmt.Fprintf(sb, "  %-15s %d\n", k+":", counts[k])
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDatabase(sb *strings.Builder, db *DatabaseStatus) {
	if db == nil {
		return
	}
	writeSection(sb, "DATABASE")
	fmt.Fprintf(sb, "  Path:      %s\n", db.Path)
	fmt.Fprintf(sb, "  Documents: %d\n", db.Documents)
	fmt.Fprintf(sb, "  Chunks:    %d\n", db.Chunks)
	fmt.Fprintf(sb, "  Entities:  %d\n", db.Entities)
	fmt.Fprintf(sb, "  Mentions:  %d\n", db.Mentions)
	if len(db.Runs) > 0 {
		sb.WriteString("\n  Recent runs:\n")
		for _, r := range db.Runs {
			fmt.Fprintf(sb, "    %s  %-8s %s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.Stage, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		}
	}
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
}
