package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/model"
	"github.com/nao1215/docingest/internal/process"
	"github.com/nao1215/docingest/internal/state"
)

// DefaultBatchSize is the number of records sent per request.
const DefaultBatchSize = 500

// Record is the search document built for one chunk.
type Record struct {
	ChunkID    string   `json:"chunk_id"`
	DocID      string   `json:"doc_id"`
	FileSHA256 string   `json:"file_sha256"`
	PageNo     int      `json:"page_no"`
	ChunkNo    int      `json:"chunk_no"`
	Text       string   `json:"text"`
	SourceURL  string   `json:"source_url"`
	SourceHost string   `json:"source_host"`
	Entities   []string `json:"entities"`
	EntityIDs  []int64  `json:"entity_ids"`
}

// ChunkID returns the search key of a chunk.
func ChunkID(fileSHA256 string, pageNo, chunkNo int) string {
	return fmt.Sprintf("%s-%d-%d", fileSHA256, pageNo, chunkNo)
}

// EntitySource supplies the entities recognized in a loaded document.
// *database.CorpusDB implements it.
type EntitySource interface {
	DocumentEntities(ctx context.Context, docID int64) (map[database.ChunkKey][]database.EntityRef, error)
}

// BuildRecords converts the processed output of one URL into search records.
// entities may be nil.
func BuildRecords(rawURL string, rec *model.URLRecord, doc *model.ProcessedDocument, entities map[database.ChunkKey][]database.EntityRef) []Record {
	source := rec.FinalURL
	if source == "" {
		source = rawURL
	}
	host := rec.SourceHost
	if host == "" {
		if parsed, err := url.Parse(source); err == nil {
			host = strings.ToLower(parsed.Host)
		}
	}
	sha := doc.FileSHA256
	if sha == "" {
		sha = rec.ContentHash
	}

	records := make([]Record, 0, len(doc.Chunks))
	for _, c := range doc.Chunks {
		r := Record{
			ChunkID:    ChunkID(sha, c.PageNo, c.ChunkNo),
			DocID:      rec.DocID,
			FileSHA256: sha,
			PageNo:     c.PageNo,
			ChunkNo:    c.ChunkNo,
			Text:       c.Text,
			SourceURL:  source,
			SourceHost: host,
			Entities:   []string{},
			EntityIDs:  []int64{},
		}
		for _, ref := range entities[database.ChunkKey{PageNo: c.PageNo, ChunkNo: c.ChunkNo}] {
			r.Entities = append(r.Entities, ref.CanonicalText)
			r.EntityIDs = append(r.EntityIDs, ref.ID)
		}
		records = append(records, r)
	}
	return records
}

// Summary counts the outcome of an index run.
type Summary struct {
	Documents int
	Records   int
	Batches   int
	Skipped   int
	Failed    int
}

// Counts returns the summary as a map for run bookkeeping.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"documents": s.Documents,
		"records":   s.Records,
		"batches":   s.Batches,
		"skipped":   s.Skipped,
		"failed":    s.Failed,
	}
}

// Service builds chunk records from the run state and sends them in batches.
type Service struct {
	indexer   Indexer
	index     string
	batchSize int
	maxDocs   int
	entities  EntitySource
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex sets the target index name. Defaults to DefaultIndex.
func WithIndex(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.index = name
		}
	}
}

// WithBatchSize sets the number of records per request. Defaults to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMaxDocs limits the number of documents indexed. Zero means no limit.
func WithMaxDocs(n int) Option {
	return func(s *Service) {
		s.maxDocs = n
	}
}

// WithEntities attaches recognized entities to the records of loaded documents.
func WithEntities(src EntitySource) Option {
	return func(s *Service) {
		s.entities = src
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service sending records to indexer.
func NewService(indexer Indexer, opts ...Option) *Service {
	s := &Service{
		indexer:   indexer,
		index:     DefaultIndex,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// IndexProcessed indexes every processed record of rs in URL order.
// Records whose output file is missing or unreadable are skipped or counted
// as failures; a rejected batch aborts the run.
func (s *Service) IndexProcessed(ctx context.Context, rs *state.RunState) (Summary, error) {
	var (
		summary Summary
		batch   []Record
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.indexer.AddRecords(ctx, s.index, batch); err != nil {
			return err
		}
		summary.Batches++
		summary.Records += len(batch)
		s.logger.Debug("sent batch", "index", s.index, "records", len(batch))
		batch = nil
		return nil
	}

	for _, u := range rs.URLs() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if s.maxDocs > 0 && summary.Documents >= s.maxDocs {
			break
		}

		rec, _ := rs.Record(u)
		if !rec.Processed() || rec.ProcessSkip != "" || rec.ProcessError != "" {
			continue
		}
		if _, err := os.Stat(rec.ProcessedOutputPath); err != nil {
			s.logger.Warn("processed output missing", "url", u, "path", rec.ProcessedOutputPath)
			summary.Skipped++
			continue
		}

		doc, err := process.ReadOutput(rec.ProcessedOutputPath)
		if err != nil {
			s.logger.Warn("failed to read processed output", "url", u, "error", err)
			summary.Failed++
			continue
		}

		entities, err := s.documentEntities(ctx, rec)
		if err != nil {
			s.logger.Warn("failed to read entities", "url", u, "error", err)
		}

		summary.Documents++
		for _, r := range BuildRecords(u, rec, doc, entities) {
			batch = append(batch, r)
			if len(batch) >= s.batchSize {
				if err := flush(); err != nil {
					return summary, err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Service) documentEntities(ctx context.Context, rec *model.URLRecord) (map[database.ChunkKey][]database.EntityRef, error) {
	if s.entities == nil || rec.DocID == "" {
		return nil, nil //nolint:nilnil // no entities available
	}
	docID, err := strconv.ParseInt(rec.DocID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid doc_id %q: %w", rec.DocID, err)
	}
	return s.entities.DocumentEntities(ctx, docID)
}
