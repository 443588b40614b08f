package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nao1215/docingest/internal/model"
)

// Version is the ledger format version written by Save.
const Version = 1

// ErrUnsupportedVersion is returned when a ledger has an unknown format version.
var ErrUnsupportedVersion = errors.New("unsupported state version")

// FileEntry locates one content store file.
type FileEntry struct {
	Path string `json:"path"`
}

// RunState is the persisted ledger.
type RunState struct {
	Version int                         `json:"version"`
	URLMeta map[string]*model.URLRecord `json:"url_meta"`
	Files   map[string]FileEntry        `json:"files"`
}

// New returns an empty ledger.
func New() *RunState {
	return &RunState{
		Version: Version,
		URLMeta: make(map[string]*model.URLRecord),
		Files:   make(map[string]FileEntry),
	}
}

// Load reads the ledger at path. A missing file yields an empty ledger.
func Load(path string) (*RunState, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied state path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	switch s.Version {
	case 0:
		s.Version = Version
	case Version:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if s.URLMeta == nil {
		s.URLMeta = make(map[string]*model.URLRecord)
	}
	if s.Files == nil {
		s.Files = make(map[string]FileEntry)
	}
	for url, rec := range s.URLMeta {
		if rec == nil {
			s.URLMeta[url] = &model.URLRecord{}
		}
	}
	return s, nil
}

// Save writes the whole ledger to path, replacing the previous file only
// after the new content was fully written.
func (s *RunState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// Record returns the record for url, if any.
func (s *RunState) Record(url string) (*model.URLRecord, bool) {
	rec, ok := s.URLMeta[url]
	return rec, ok
}

// Ensure returns the record for url, creating an empty one if needed.
func (s *RunState) Ensure(url string) *model.URLRecord {
	if rec, ok := s.URLMeta[url]; ok {
		return rec
	}
	rec := &model.URLRecord{}
	s.URLMeta[url] = rec
	return rec
}

// AddFile registers a content store file.
func (s *RunState) AddFile(hash, path string) {
	s.Files[hash] = FileEntry{Path: path}
}

// URLs returns every ledger URL in sorted order.
func (s *RunState) URLs() []string {
	urls := make([]string, 0, len(s.URLMeta))
	for url := range s.URLMeta {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
