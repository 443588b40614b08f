// Package chunker splits extracted page text into paragraph chunks.
//
// Paragraphs are separated by a blank line ("\n\n"). Each paragraph is
// trimmed and empty ones are dropped. Offsets are counted in code points over
// the page text rebuilt by joining the kept paragraphs with a two character
// separator, so they match the raw text only when it already uses exactly
// that layout. Chunking is deterministic: the same pages always produce the
// same chunks.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/docingest/internal/model"
)

const (
	paragraphSeparator = "\n\n"
	separatorWidth     = 2
)

// ChunkPageText splits one page into chunks numbered from 1.
func ChunkPageText(pageNo int, text string) []model.Chunk {
	chunks := make([]model.Chunk, 0)
	cursor := 0
	for _, para := range strings.Split(text, paragraphSeparator) {
		para = strings.TrimFunc(para, isSpace)
		if para == "" {
			continue
		}
		start := cursor
		end := start + utf8.RuneCountInString(para)
		chunks = append(chunks, model.Chunk{
			PageNo:    pageNo,
			ChunkNo:   len(chunks) + 1,
			Text:      para,
			StartChar: start,
			EndChar:   end,
		})
		cursor = end + separatorWidth
	}
	return chunks
}

// isSpace reports Unicode white space plus the ASCII file, group, record and
// unit separators (U+001C to U+001F), which pdftotext output can contain.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// ChunkPages chunks every page in order and concatenates the results.
func ChunkPages(pages []model.PageText) []model.Chunk {
	chunks := make([]model.Chunk, 0)
	for _, p := range pages {
		chunks = append(chunks, ChunkPageText(p.PageNo, p.Text)...)
	}
	return chunks
}
