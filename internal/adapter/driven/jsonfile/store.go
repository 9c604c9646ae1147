// Package jsonfile implements the RepositoryStore port on top of a single
// JSON document that is read once at startup and rewritten on every update.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/repoconfig/internal/domain/model"
	"github.com/ericfisherdev/repoconfig/internal/domain/port/driven"
	"github.com/ericfisherdev/repoconfig/internal/metrics"
)

const backendName = "json"

// Compile-time interface satisfaction check.
var _ driven.RepositoryStore = (*Store)(nil)

// Store holds the repository collection in memory and mirrors it to a JSON
// document on disk. All writes are serialized by mu; the in-memory slice is
// only swapped after the document has been written successfully.
type Store struct {
	mu    sync.RWMutex
	path  string
	repos []model.Repository
}

// Open reads the document at path and returns a Store seeded from it. The
// file must exist. An empty array or a JSON null yields an empty collection.
// Duplicate repository IDs are rejected.
func Open(path string) (*Store, error) {
	repos, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	return &Store{path: path, repos: repos}, nil
}

// ReadDocument decodes the repository collection stored at path.
func ReadDocument(path string) ([]model.Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repositories document %s: %w", path, err)
	}

	repos, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode repositories document %s: %w", path, err)
	}
	return repos, nil
}

// DecodeDocument parses a repository collection and checks ID uniqueness.
func DecodeDocument(data []byte) ([]model.Repository, error) {
	var repos []model.Repository
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []model.Repository{}
	}

	seen := make(map[int64]struct{}, len(repos))
	for _, repo := range repos {
		if _, dup := seen[repo.ID]; dup {
			return nil, fmt.Errorf("duplicate repository id %d", repo.ID)
		}
		seen[repo.ID] = struct{}{}
	}

	return repos, nil
}

// EncodeDocument renders the collection the way it is stored on disk:
// two-space indentation, struct field order, and no HTML escaping.
func EncodeDocument(repos []model.Repository) ([]byte, error) {
	if repos == nil {
		repos = []model.Repository{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(repos); err != nil {
		return nil, err
	}

	// Encoder always terminates with a newline; the stored form does not.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Path returns the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// List returns a copy of the collection in document order.
func (s *Store) List(_ context.Context) ([]model.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Repository, len(s.repos))
	copy(out, s.repos)
	return out, nil
}

// Get returns the repository with the given ID.
func (s *Store) Get(_ context.Context, id int64) (model.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Repository{}, fmt.Errorf("get repository %d: %w", id, driven.ErrRepositoryNotFound)
	}
	return s.repos[idx], nil
}

// UpdateConfig replaces the config of repository id and rewrites the whole
// document. The config is stored exactly as given.
func (s *Store) UpdateConfig(_ context.Context, id int64, cfg model.RepositoryConfig) (model.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Repository{}, fmt.Errorf("update repository %d: %w", id, driven.ErrRepositoryNotFound)
	}

	next := make([]model.Repository, len(s.repos))
	copy(next, s.repos)
	next[idx].Config = cfg

	if err := s.persist(next); err != nil {
		metrics.IncStoreWrite(backendName, metrics.ResultError)
		return model.Repository{}, fmt.Errorf("update repository %d: %w", id, err)
	}
	metrics.IncStoreWrite(backendName, metrics.ResultOK)

	s.repos = next
	return next[idx], nil
}

// indexOf performs a linear scan for id. Caller must hold mu.
func (s *Store) indexOf(id int64) int {
	for i := range s.repos {
		if s.repos[i].ID == id {
			return i
		}
	}
	return -1
}

// persist writes repos to the backing document via a temp file and rename
// in the same directory. Caller must hold mu.
func (s *Store) persist(repos []model.Repository) error {
	data, err := EncodeDocument(repos)
	if err != nil {
		return fmt.Errorf("encode repositories: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write repositories document %s: %w", s.path, err)
	}
	return nil
}
