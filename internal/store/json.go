// Package store persists project records, either as a single JSON file or
// in a SQLite database.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/internal/fileutil"
	"github.com/jnthodge/visual-bible/internal/project"
)

// JSONStore keeps all records in one pretty-printed JSON array file. Every
// operation re-reads the file, so edits made by hand between requests are
// picked up; writes replace the file atomically.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

var _ project.Store = (*JSONStore)(nil)

// NewJSONStore returns a store backed by the file at path. The file is
// created on first save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Save(ctx context.Context, rec *project.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = slices.DeleteFunc(records, rec.Supersedes)
	records = append(records, rec)
	return s.persist(records)
}

func (s *JSONStore) List(ctx context.Context) ([]*project.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore) Get(ctx context.Context, id string) (*project.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.NewNotFound("project", id)
}

func (s *JSONStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(records, func(r *project.Record) bool { return r.ID == id })
	if len(kept) == len(records) {
		return errors.NewNotFound("project", id)
	}
	return s.persist(kept)
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) load() ([]*project.Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []*project.Record{}, nil
	}
	if err != nil {
		return nil, errors.NewIO("read", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*project.Record{}, nil
	}
	var records []*project.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.NewIO("decode", s.path, err)
	}
	if records == nil {
		records = []*project.Record{}
	}
	return records, nil
}

func (s *JSONStore) persist(records []*project.Record) error {
	err := fileutil.WriteAtomic(s.path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	})
	if err != nil {
		return errors.NewIO("write", s.path, err)
	}
	return nil
}
