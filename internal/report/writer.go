package report

import (
	"io"
)

// Writer defines the interface for status output.
type Writer interface {
	// Write outputs the status to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(status *Status) (int, error)
}

// Format names an output format.
type Format string

// Supported output formats.
const (
	FormatSimple   Format = "simple"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// NewWriter returns the writer for format. Unknown formats fall back to simple text.
func NewWriter(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
