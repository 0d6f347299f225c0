package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/saas-admin-client/storage"
)

var _ storage.Persister = (*Store)(nil)

// Store keeps each record as <folder>/<name>.json.
type Store struct {
	folder string
	lock   sync.Mutex
}

func New(folder string) (*Store, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore New] create %s: %w", folder, err)
	}
	return &Store{folder: folder}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.folder, name+".json")
}

func (s *Store) Load(_ context.Context, name string, v any) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	content, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("filestore: read %s: %w", name, err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return false, fmt.Errorf("filestore: decode %s: %w", name, err)
	}
	return true, nil
}

// Save writes to a temporary file and renames it so a crash never leaves a
// half-written record behind.
func (s *Store) Save(_ context.Context, name string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode %s: %w", name, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	tmp, err := os.CreateTemp(s.folder, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: rename %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: delete %s: %w", name, err)
	}
	return nil
}
