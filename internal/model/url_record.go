package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// ContentKind is the sniffed type of fetched content.
type ContentKind string

// Content kinds recognized by Sniff.
const (
	// KindPDF is content starting with the "%PDF" magic bytes.
	KindPDF ContentKind = "pdf"
	// KindZIP is content starting with the "PK" magic bytes.
	KindZIP ContentKind = "zip"
	// KindHTML is content whose first non-whitespace byte is '<'.
	KindHTML ContentKind = "html"
	// KindUnknown is anything else, including an empty body.
	KindUnknown ContentKind = "unknown"
)

// BlockReason explains why fetched content was rejected by policy.
type BlockReason string

// Block reasons recorded on a URLRecord.
const (
	// BlockAgeVerify means the request was redirected to an age-verification gate.
	BlockAgeVerify BlockReason = "age_verify"
	// BlockHTMLResponse means an HTML page came back where a document was expected.
	BlockHTMLResponse BlockReason = "html_response"
)

// SkipNonPDF is the process_skip value for stored files without a PDF header.
const SkipNonPDF = "non_pdf"

// URLRecord is the ledger entry for one original URL.
// It is created on the first fresh or blocked fetch and is mutated in place
// by every later stage that touches the URL. It is never deleted.
type URLRecord struct {
	// FinalURL is the location after following redirects.
	FinalURL string `json:"final_url,omitempty"`

	// ETag and LastModified are the validators sent on the next conditional fetch.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`

	// ContentHash is the lower-hex SHA-256 of the stored bytes.
	// It is only present once content was successfully stored.
	ContentHash string `json:"content_hash,omitempty"`

	// StoragePath is the content store path for ContentHash.
	StoragePath string `json:"storage_path,omitempty"`

	// SourceHost is the lower-cased host of the final URL.
	SourceHost string `json:"source_host,omitempty"`

	ContentKind   ContentKind `json:"content_kind,omitempty"`
	BlockedReason BlockReason `json:"blocked_reason,omitempty"`

	// ProcessError and ProcessSkip are set by the process stage.
	ProcessError string `json:"process_error,omitempty"`
	ProcessSkip  string `json:"process_skip,omitempty"`

	ProcessedOutputPath string `json:"processed_output_path,omitempty"`

	// ChunkCount is nil until the document was processed; zero chunks is a valid result.
	ChunkCount *int `json:"chunk_count,omitempty"`

	// DocID is the relational store key assigned by the load stage.
	DocID string `json:"doc_id,omitempty"`
}

// Blocked reports whether the record was rejected by a content policy.
func (r *URLRecord) Blocked() bool {
	return r.BlockedReason != ""
}

// Stored reports whether the record points at content in the store.
func (r *URLRecord) Stored() bool {
	return r.ContentHash != "" && r.StoragePath != ""
}

// Processed reports whether the process stage produced output for the record.
func (r *URLRecord) Processed() bool {
	return r.ProcessedOutputPath != "" && r.ChunkCount != nil
}

// ClearProcessing drops every field derived from previously stored content.
// DocID is kept because the relational store is keyed by source URL.
func (r *URLRecord) ClearProcessing() {
	r.ProcessError = ""
	r.ProcessSkip = ""
	r.ProcessedOutputPath = ""
	r.ChunkCount = nil
}

// SetChunkCount records the number of chunks produced for the record.
func (r *URLRecord) SetChunkCount(n int) {
	r.ChunkCount = &n
}

// Clone returns a deep copy of the record.
func (r *URLRecord) Clone() *URLRecord {
	c := *r
	if r.ChunkCount != nil {
		n := *r.ChunkCount
		c.ChunkCount = &n
	}
	return &c
}

// Sniff classifies content by its leading bytes after trimming leading whitespace.
func Sniff(data []byte) ContentKind {
	head := bytes.TrimLeft(data, " \t\r\n\f\v")
	switch {
	case bytes.HasPrefix(head, []byte("%PDF")):
		return KindPDF
	case bytes.HasPrefix(head, []byte("PK")):
		return KindZIP
	case bytes.HasPrefix(head, []byte("<")):
		return KindHTML
	default:
		return KindUnknown
	}
}

// ContentHash returns the lower-hex SHA-256 digest of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
