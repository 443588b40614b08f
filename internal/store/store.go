// Package store is a content-addressed file store.
//
// Every file is named by the lower-hex SHA-256 of its bytes, so identical
// content fetched from any number of URLs is stored once. Puts are
// idempotent: an existing file is never rewritten.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/docingest/internal/model"
)

// Store keeps content under a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create content store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Entry describes stored content.
type Entry struct {
	Hash string
	Path string
}

// Put stores data under its hash. Written is false when the file already existed.
func (s *Store) Put(data []byte) (entry Entry, written bool, err error) {
	hash := model.ContentHash(data)
	path := filepath.Join(s.dir, hash)
	entry = Entry{Hash: hash, Path: path}

	if _, err := os.Stat(path); err == nil {
		return entry, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return entry, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return entry, false, err
	}
	return entry, true, nil
}

// HashFile returns the lower-hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the run state
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return model.ContentHash(data), nil
}

// ReadHeader returns up to n leading bytes of the file at path.
func ReadHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the run state
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return buf[:read], nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so a crash never leaves a partial file under a
// content hash name.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
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
		return fmt.Errorf("failed to move content into place: %w", err)
	}
	return nil
}
