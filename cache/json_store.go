package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

// JSONStore keeps the cache as one JSON object mapping canonical keys to
// score arrays, the lookup-table format used by earlier tooling.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load(ctx context.Context) (map[board.Key]solver.ScoreVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	entries := map[board.Key]solver.ScoreVector{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save writes to a temporary file and renames it over the old one, so a
// crash mid-write never leaves a truncated table behind.
func (s *JSONStore) Save(ctx context.Context, entries map[board.Key]solver.ScoreVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *JSONStore) Close() error { return nil }
