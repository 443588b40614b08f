// Package extract turns a PDF file into per-page text.
//
// The default extractor runs poppler's pdftotext, which separates pages with
// a form feed. The command runner is injectable so tests and alternative
// tool installs do not need the binary on PATH.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nao1215/docingest/internal/model"
)

// DefaultTool is the extraction binary looked up on PATH.
const DefaultTool = "pdftotext"

// ErrToolNotFound is returned when the extraction binary cannot be found.
var ErrToolNotFound = errors.New("pdftotext not found: install poppler-utils (apt install poppler-utils, brew install poppler)")

// Error is an extraction failure for one file. Callers record it on the
// file's ledger entry and continue with the next file.
type Error struct {
	Path string
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the text of a document.
type Result struct {
	PageCount int
	Pages     []model.PageText
}

// Extractor extracts per-page text from the file at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // tool path comes from configuration
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// PDFToText extracts text with the pdftotext command.
type PDFToText struct {
	tool   string
	runner CommandRunner
}

// Option configures PDFToText.
type Option func(*PDFToText)

// WithTool sets the pdftotext binary name or path.
func WithTool(tool string) Option {
	return func(p *PDFToText) {
		if tool != "" {
			p.tool = tool
		}
	}
}

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) Option {
	return func(p *PDFToText) {
		p.runner = r
	}
}

// NewPDFToText creates a pdftotext extractor.
func NewPDFToText(opts ...Option) *PDFToText {
	p := &PDFToText{tool: DefaultTool, runner: ExecRunner{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckTool verifies that the configured binary is available.
func (p *PDFToText) CheckTool() error {
	if _, err := exec.LookPath(p.tool); err != nil {
		return fmt.Errorf("%w (looked for %q)", ErrToolNotFound, p.tool)
	}
	return nil
}

// Extract implements Extractor.
func (p *PDFToText) Extract(ctx context.Context, path string) (*Result, error) {
	out, err := p.runner.Run(ctx, p.tool, "-enc", "UTF-8", path, "-")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Path: path, Err: fmt.Errorf("pdftotext failed: %w", err)}
	}
	pages := SplitPages(string(out))
	return &Result{PageCount: len(pages), Pages: pages}, nil
}

// SplitPages splits pdftotext output on form feeds into 1-based pages.
// pdftotext ends every page with a form feed, so the empty tail after the
// last one is not a page.
func SplitPages(out string) []model.PageText {
	if out == "" {
		return []model.PageText{}
	}
	parts := strings.Split(out, "\f")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]model.PageText, len(parts))
	for i, text := range parts {
		pages[i] = model.PageText{PageNo: i + 1, Text: text}
	}
	return pages
}
