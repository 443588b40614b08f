package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docingest/internal/model"
)

// DefaultFileName is the database file name used inside the work directory.
const DefaultFileName = "docingest.db"

// CorpusDB is the relational store for loaded documents, their chunks,
// and the entities recognized in them.
type CorpusDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CorpusDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the corpus database at dbPath.
// If CreateIfNotExists is false and the file doesn't exist, an error is returned.
func Open(dbPath string, opts Options) (*CorpusDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run load-db first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CorpusDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CorpusDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CorpusDB) Path() string {
	return cdb.dbPath
}

func (cdb *CorpusDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_url TEXT NOT NULL UNIQUE,
		source_host TEXT,
		file_sha256 TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_sha ON documents(file_sha256);

	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		page_no INTEGER NOT NULL,
		chunk_no INTEGER NOT NULL,
		text TEXT NOT NULL,
		chunk_sha256 TEXT NOT NULL,
		start_char INTEGER NOT NULL,
		end_char INTEGER NOT NULL,
		UNIQUE(doc_id, page_no, chunk_no)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id);

	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		canonical_text TEXT NOT NULL,
		type TEXT NOT NULL,
		UNIQUE(canonical_text, type)
	);

	CREATE TABLE IF NOT EXISTS entity_mentions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chunk_id INTEGER NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
		entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		start_char INTEGER NOT NULL,
		end_char INTEGER NOT NULL,
		mention_text TEXT NOT NULL,
		UNIQUE(chunk_id, entity_id, start_char, end_char)
	);

	CREATE INDEX IF NOT EXISTS idx_mentions_chunk ON entity_mentions(chunk_id);

	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		counts TEXT
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Document is a row of the documents table.
type Document struct {
	ID         int64
	SourceURL  string
	SourceHost string
	FileSHA256 string
	PageCount  int
}

// StoredChunk is a chunk row joined with its document.
type StoredChunk struct {
	ID          int64
	DocID       int64
	PageNo      int
	ChunkNo     int
	Text        string
	ChunkSHA256 string
	StartChar   int
	EndChar     int
	SourceURL   string
}

// LoadDocument upserts doc keyed by its source URL and every chunk keyed by
// (doc, page, chunk) in a single transaction. The document ID is returned.
func (cdb *CorpusDB) LoadDocument(ctx context.Context, doc Document, chunks []model.Chunk) (id int64, err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	docQuery := `
	INSERT INTO documents (source_url, source_host, file_sha256, page_count)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(source_url) DO UPDATE SET
		source_host = excluded.source_host,
		file_sha256 = excluded.file_sha256,
		page_count = excluded.page_count,
		updated_at = CURRENT_TIMESTAMP
	RETURNING id
	`
	if err = tx.QueryRowContext(ctx, docQuery, doc.SourceURL, doc.SourceHost, doc.FileSHA256, doc.PageCount).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert document: %w", err)
	}

	chunkQuery := `
	INSERT INTO chunks (doc_id, page_no, chunk_no, text, chunk_sha256, start_char, end_char)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(doc_id, page_no, chunk_no) DO UPDATE SET
		text = excluded.text,
		chunk_sha256 = excluded.chunk_sha256,
		start_char = excluded.start_char,
		end_char = excluded.end_char
	`
	stmt, err := tx.PrepareContext(ctx, chunkQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare chunk upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		hash := model.ContentHash([]byte(c.Text))
		if _, err = stmt.ExecContext(ctx, id, c.PageNo, c.ChunkNo, c.Text, hash, c.StartChar, c.EndChar); err != nil {
			return 0, fmt.Errorf("failed to upsert chunk %d/%d: %w", c.PageNo, c.ChunkNo, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit document: %w", err)
	}
	return id, nil
}

// GetDocument returns the document stored for sourceURL, or nil if none exists.
func (cdb *CorpusDB) GetDocument(ctx context.Context, sourceURL string) (*Document, error) {
	query := `
	SELECT id, source_url, COALESCE(source_host, ''), file_sha256, page_count
	FROM documents
	WHERE source_url = ?
	`

	var doc Document
	err := cdb.db.QueryRowContext(ctx, query, sourceURL).Scan(
		&doc.ID, &doc.SourceURL, &doc.SourceHost, &doc.FileSHA256, &doc.PageCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil means not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ListChunks returns chunks ordered by ID, starting at offset.
// A limit of zero or less returns every remaining chunk.
func (cdb *CorpusDB) ListChunks(ctx context.Context, limit, offset int) ([]StoredChunk, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	query := `
	SELECT c.id, c.doc_id, c.page_no, c.chunk_no, c.text, c.chunk_sha256,
	       c.start_char, c.end_char, d.source_url
	FROM chunks c
	JOIN documents d ON d.id = c.doc_id
	ORDER BY c.id
	LIMIT ? OFFSET ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var c StoredChunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.PageNo, &c.ChunkNo, &c.Text, &c.ChunkSHA256,
			&c.StartChar, &c.EndChar, &c.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Counts holds row counts of the corpus tables.
type Counts struct {
	Documents int
	Chunks    int
	Entities  int
	Mentions  int
}

// Counts returns the number of rows in each corpus table.
func (cdb *CorpusDB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	query := `
	SELECT
		(SELECT COUNT(*) FROM documents),
		(SELECT COUNT(*) FROM chunks),
		(SELECT COUNT(*) FROM entities),
		(SELECT COUNT(*) FROM entity_mentions)
	`
	if err := cdb.db.QueryRowContext(ctx, query).Scan(&c.Documents, &c.Chunks, &c.Entities, &c.Mentions); err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

// SaveMentions stores the entity mentions found in one chunk.
// Entities are upserted on (canonical text, type) and mentions are inserted
// idempotently, so saving the same mentions twice is a no-op.
func (cdb *CorpusDB) SaveMentions(ctx context.Context, chunkID int64, mentions []model.Mention) (err error) {
	if len(mentions) == 0 {
		return nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	entityQuery := `
	INSERT INTO entities (canonical_text, type)
	VALUES (?, ?)
	ON CONFLICT(canonical_text, type) DO UPDATE SET canonical_text = excluded.canonical_text
	RETURNING id
	`
	mentionQuery := `
	INSERT INTO entity_mentions (chunk_id, entity_id, start_char, end_char, mention_text)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(chunk_id, entity_id, start_char, end_char) DO NOTHING
	`

	for _, m := range mentions {
		canonical := m.Canonical
		if canonical == "" {
			canonical = m.Text
		}
		var entityID int64
		if err = tx.QueryRowContext(ctx, entityQuery, canonical, string(m.Type)).Scan(&entityID); err != nil {
			return fmt.Errorf("failed to upsert entity %q: %w", canonical, err)
		}
		if _, err = tx.ExecContext(ctx, mentionQuery, chunkID, entityID, m.Start, m.End, m.Text); err != nil {
			return fmt.Errorf("failed to insert mention: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mentions: %w", err)
	}
	return nil
}

// EntityRef identifies an entity attached to a chunk.
type EntityRef struct {
	ID            int64
	CanonicalText string
	Type          model.EntityType
}

// ChunkKey addresses a chunk within a document.
type ChunkKey struct {
	PageNo  int
	ChunkNo int
}

// DocumentEntities returns the distinct entities mentioned in each chunk of a document.
func (cdb *CorpusDB) DocumentEntities(ctx context.Context, docID int64) (map[ChunkKey][]EntityRef, error) {
	query := `
	SELECT DISTINCT c.page_no, c.chunk_no, e.id, e.canonical_text, e.type
	FROM chunks c
	JOIN entity_mentions m ON m.chunk_id = c.id
	JOIN entities e ON e.id = m.entity_id
	WHERE c.doc_id = ?
	ORDER BY c.page_no, c.chunk_no, e.id
	`

	rows, err := cdb.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	out := make(map[ChunkKey][]EntityRef)
	for rows.Next() {
		var (
			key ChunkKey
			ref EntityRef
			typ string
		)
		if err := rows.Scan(&key.PageNo, &key.ChunkNo, &ref.ID, &ref.CanonicalText, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		ref.Type = model.EntityType(typ)
		out[key] = append(out[key], ref)
	}
	return out, rows.Err()
}

// Run is one stage execution recorded in ingest_runs.
type Run struct {
	ID         string
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     map[string]int
}

// RecordRun stores a stage execution. Recording the same ID twice replaces the row.
func (cdb *CorpusDB) RecordRun(ctx context.Context, run Run) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("failed to serialize run counts: %w", err)
	}

	query := `
	INSERT INTO ingest_runs (id, stage, started_at, finished_at, counts)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		stage = excluded.stage,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		counts = excluded.counts
	`
	_, err = cdb.db.ExecContext(ctx, query, run.ID, run.Stage,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano), string(counts))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (cdb *CorpusDB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, stage, started_at, finished_at, COALESCE(counts, '')
	FROM ingest_runs
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
			countsJSON        string
		)
		if err := rows.Scan(&run.ID, &run.Stage, &started, &finished, &countsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		if countsJSON != "" {
			if err := json.Unmarshal([]byte(countsJSON), &run.Counts); err != nil {
				return nil, fmt.Errorf("failed to parse run counts: %w", err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
