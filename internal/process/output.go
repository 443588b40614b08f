package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/docingest/internal/model"
)

// WriteOutput writes doc as JSON to path, replacing any previous file atomically.
func WriteOutput(path string, doc *model.ProcessedDocument) error {
	if doc.Pages == nil {
		doc.Pages = []model.PageText{}
	}
	if doc.Chunks == nil {
		doc.Chunks = []model.Chunk{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode processed output: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".out-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write processed output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close processed output: %w", err)
	}
	return os.Rename(tmpName, path)
}

// ReadOutput reads a processed output file.
func ReadOutput(path string) (*model.ProcessedDocument, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the run state
	if err != nil {
		return nil, fmt.Errorf("failed to read processed output: %w", err)
	}
	var doc model.ProcessedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse processed output %s: %w", path, err)
	}
	return &doc, nil
}
