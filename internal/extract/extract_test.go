package extract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nao1215/docingest/internal/model"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestSplitPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  string
		want []model.PageText
	}{
		{name: "empty output has no pages", out: "", want: []model.PageText{}},
		{
			name: "trailing form feed does not add a page",
			out:  "one\ftwo\f",
			want: []model.PageText{{PageNo: 1, Text: "one"}, {PageNo: 2, Text: "two"}},
		},
		{
			name: "blank pages are kept to preserve numbering",
			out:  "one\f\fthree\f",
			want: []model.PageText{{PageNo: 1, Text: "one"}, {PageNo: 2, Text: ""}, {PageNo: 3, Text: "three"}},
		},
		{
			name: "output without form feed is one page",
			out:  "only",
			want: []model.PageText{{PageNo: 1, Text: "only"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SplitPages(tt.out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitPages(%q) = %+v, want %+v", tt.out, got, tt.want)
			}
		})
	}
}

func TestPDFToTextExtract(t *testing.T) {
	t.Parallel()

	t.Run("runs the tool and returns pages", func(t *testing.T) {
		t.Parallel()

		runner := &mockRunner{output: []byte("page one\n\npara\fpage two\f")}
		p := NewPDFToText(WithTool("/opt/poppler/pdftotext"), WithRunner(runner))

		res, err := p.Extract(context.Background(), "/data/abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.PageCount != 2 || res.Pages[1].Text != "page two" {
			t.Errorf("unexpected result: %+v", res)
		}
		if runner.name != "/opt/poppler/pdftotext" {
			t.Errorf("tool = %q", runner.name)
		}
		wantArgs := []string{"-enc", "UTF-8", "/data/abc", "-"}
		if !reflect.DeepEqual(runner.args, wantArgs) {
			t.Errorf("args = %v, want %v", runner.args, wantArgs)
		}
	})

	t.Run("tool failure is an extraction error", func(t *testing.T) {
		t.Parallel()

		runner := &mockRunner{err: errors.New("Syntax Error: Couldn't find trailer dictionary")}
		_, err := NewPDFToText(WithRunner(runner)).Extract(context.Background(), "/data/bad")

		var extractErr *Error
		if !errors.As(err, &extractErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if extractErr.Path != "/data/bad" {
			t.Errorf("path = %q", extractErr.Path)
		}
	})

	t.Run("cancelled context is not an extraction error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runner := &mockRunner{err: errors.New("signal: killed")}
		_, err := NewPDFToText(WithRunner(runner)).Extract(ctx, "/data/x")

		var extractErr *Error
		if errors.As(err, &extractErr) {
			t.Errorf("cancellation reported as extraction error: %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCheckTool(t *testing.T) {
	t.Parallel()

	err := NewPDFToText(WithTool("docingest-no-such-tool")).CheckTool()
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}
