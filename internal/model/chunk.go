package model

// PageText is the extracted text of one page. PageNo is 1-based.
type PageText struct {
	PageNo int    `json:"page_no"`
	Text   string `json:"text"`
}

// Chunk is a maximal non-empty paragraph of a page's text.
//
// StartChar and EndChar are code point offsets into the page text rebuilt by
// joining the trimmed paragraphs with a two character separator. They are not
// offsets into the raw extracted text when the original separators differ.
type Chunk struct {
	PageNo    int    `json:"page_no"`
	ChunkNo   int    `json:"chunk_no"`
	Text      string `json:"text"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

// ProcessedDocument is the per-file output of the process stage,
// stored as <processed_dir>/<file_sha256>.json.
type ProcessedDocument struct {
	FileSHA256 string     `json:"file_sha256"`
	PageCount  int        `json:"page_count"`
	Pages      []PageText `json:"pages"`
	Chunks     []Chunk    `json:"chunks"`
}
