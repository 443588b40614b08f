package chunker

import (
	"reflect"
	"testing"

	"github.com/nao1215/docingest/internal/model"
)

func TestChunkPageText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []model.Chunk
	}{
		{
			name: "empty page has no chunks",
			text: "",
			want: []model.Chunk{},
		},
		{
			name: "whitespace-only paragraphs are dropped",
			text: "  \n\n\t\n\n",
			want: []model.Chunk{},
		},
		{
			name: "two paragraphs use the two character separator",
			text: "A\n\nB",
			want: []model.Chunk{
				{PageNo: 1, ChunkNo: 1, Text: "A", StartChar: 0, EndChar: 1},
				{PageNo: 1, ChunkNo: 2, Text: "B", StartChar: 3, EndChar: 4},
			},
		},
		{
			name: "extra newlines and padding do not shift offsets",
			text: "  first line\nstill first  \n\n\n\n second ",
			want: []model.Chunk{
				{PageNo: 1, ChunkNo: 1, Text: "first line\nstill first", StartChar: 0, EndChar: 22},
				{PageNo: 1, ChunkNo: 2, Text: "second", StartChar: 24, EndChar: 30},
			},
		},
		{
			name: "separator control characters count as white space",
			text: "\x1c\n\nA\x1f\n\n\x1d B \x1e",
			want: []model.Chunk{
				{PageNo: 1, ChunkNo: 1, Text: "A", StartChar: 0, EndChar: 1},
				{PageNo: 1, ChunkNo: 2, Text: "B", StartChar: 3, EndChar: 4},
			},
		},
		{
			name: "separator characters inside a paragraph are kept",
			text: "A\x1cB",
			want: []model.Chunk{
				{PageNo: 1, ChunkNo: 1, Text: "A\x1cB", StartChar: 0, EndChar: 3},
			},
		},
		{
			name: "offsets count code points",
			text: "café\n\nnaïve",
			want: []model.Chunk{
				{PageNo: 1, ChunkNo: 1, Text: "café", StartChar: 0, EndChar: 4},
				{PageNo: 1, ChunkNo: 2, Text: "naïve", StartChar: 6, EndChar: 11},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ChunkPageText(1, tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkPageText(1, %q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestChunkPages(t *testing.T) {
	t.Parallel()

	t.Run("numbering restarts per page and page order is kept", func(t *testing.T) {
		t.Parallel()

		got := ChunkPages([]model.PageText{
			{PageNo: 1, Text: "X"},
			{PageNo: 2, Text: "Y\n\nZ"},
		})
		want := []model.Chunk{
			{PageNo: 1, ChunkNo: 1, Text: "X", StartChar: 0, EndChar: 1},
			{PageNo: 2, ChunkNo: 1, Text: "Y", StartChar: 0, EndChar: 1},
			{PageNo: 2, ChunkNo: 2, Text: "Z", StartChar: 3, EndChar: 4},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("same input gives identical chunks", func(t *testing.T) {
		t.Parallel()

		pages := []model.PageText{{PageNo: 3, Text: "a\n\nb\n\nc"}, {PageNo: 4, Text: ""}}
		if !reflect.DeepEqual(ChunkPages(pages), ChunkPages(pages)) {
			t.Error("chunking is not deterministic")
		}
	})

	t.Run("no pages gives no chunks", func(t *testing.T) {
		t.Parallel()

		if got := ChunkPages(nil); len(got) != 0 {
			t.Errorf("got %+v", got)
		}
	})
}
