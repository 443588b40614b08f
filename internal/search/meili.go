package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

// DefaultIndex is the name of the index that receives chunk records.
const DefaultIndex = "chunks"

// PrimaryKey is the record field Meilisearch uses as document identifier.
const PrimaryKey = "chunk_id"

// ErrMissingCredentials is returned when the search host or API key is empty.
var ErrMissingCredentials = errors.New("search host and API key are required")

// Indexer adds records to a named index, replacing records with the same key.
type Indexer interface {
	AddRecords(ctx context.Context, index string, records []Record) error
}

// MeiliIndexer sends records to a Meilisearch server.
type MeiliIndexer struct {
	client *meilisearch.Client
}

// NewMeiliIndexer creates an indexer for the Meilisearch server at host.
func NewMeiliIndexer(host, apiKey string) (*MeiliIndexer, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	return &MeiliIndexer{client: client}, nil
}

// AddRecords enqueues an add-or-replace task for records.
// The task is accepted asynchronously by the server; AddRecords does not wait for it.
func (m *MeiliIndexer) AddRecords(ctx context.Context, index string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if _, err := m.client.Index(index).AddDocuments(records, PrimaryKey); err != nil {
		return fmt.Errorf("failed to add %d records to index %s: %w", len(records), index, err)
	}
	return nil
}
