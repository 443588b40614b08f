package model

import "testing"

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want ContentKind
	}{
		{name: "pdf magic is pdf", data: "%PDF-1.7\n...", want: KindPDF},
		{name: "leading whitespace is ignored", data: "\r\n  %PDF-1.4", want: KindPDF},
		{name: "zip magic is zip", data: "PK\x03\x04rest", want: KindZIP},
		{name: "html document is html", data: "<html><body>hi</body></html>", want: KindHTML},
		{name: "doctype is html", data: "\n<!DOCTYPE html>", want: KindHTML},
		{name: "plain text is unknown", data: "hello", want: KindUnknown},
		{name: "empty body is unknown", data: "", want: KindUnknown},
		{name: "lower-case pdf marker is unknown", data: "%pdf", want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Sniff([]byte(tt.data)); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	t.Run("computes lower-hex SHA256", func(t *testing.T) {
		t.Parallel()

		want := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if got := ContentHash([]byte("Hello, World!")); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("same bytes give the same hash", func(t *testing.T) {
		t.Parallel()

		if ContentHash([]byte("abc")) != ContentHash([]byte("abc")) {
			t.Error("expected identical hashes")
		}
	})
}

func TestURLRecord(t *testing.T) {
	t.Parallel()

	t.Run("ClearProcessing keeps fetch fields and doc id", func(t *testing.T) {
		t.Parallel()

		r := &URLRecord{
			FinalURL:            "https://justice.gov/a.pdf",
			ContentHash:         "abc",
			StoragePath:         "/tmp/abc",
			ProcessError:        "boom",
			ProcessSkip:         SkipNonPDF,
			ProcessedOutputPath: "/tmp/abc.json",
			DocID:               "7",
		}
		r.SetChunkCount(3)
		r.ClearProcessing()

		if r.ProcessError != "" || r.ProcessSkip != "" || r.ProcessedOutputPath != "" || r.ChunkCount != nil {
			t.Errorf("processing fields not cleared: %+v", r)
		}
		if r.ContentHash != "abc" || r.DocID != "7" {
			t.Errorf("unexpected fields changed: %+v", r)
		}
	})

	t.Run("Clone copies chunk count", func(t *testing.T) {
		t.Parallel()

		r := &URLRecord{}
		r.SetChunkCount(2)
		c := r.Clone()
		*c.ChunkCount = 5

		if *r.ChunkCount != 2 {
			t.Errorf("clone shares chunk count pointer")
		}
	})

	t.Run("zero chunks still counts as processed", func(t *testing.T) {
		t.Parallel()

		r := &URLRecord{ProcessedOutputPath: "/tmp/x.json"}
		r.SetChunkCount(0)

		if !r.Processed() {
			t.Error("expected record to be processed")
		}
	})
}
