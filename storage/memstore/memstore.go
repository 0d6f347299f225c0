package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/saas-admin-client/storage"
)

var _ storage.Persister = (*Store)(nil)

// Store keeps records as encoded JSON in memory, so values are copied the same
// way a real backend would copy them.
type Store struct {
	records map[string][]byte
	saves   map[string]int
	lock    sync.RWMutex
}

func New() *Store {
	return &Store{
		records: make(map[string][]byte),
		saves:   make(map[string]int),
	}
}

func (s *Store) Load(_ context.Context, name string, v any) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	content, ok := s.records[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(content, v)
}

func (s *Store) Save(_ context.Context, name string, v any) error {
	content, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.records[name] = content
	s.saves[name]++
	return nil
}

func (s *Store) Delete(_ context.Context, name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.records, name)
	return nil
}

// Raw returns the stored JSON for name.
func (s *Store) Raw(name string) ([]byte, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	content, ok := s.records[name]
	return content, ok
}

// Saves returns how many times name has been written.
func (s *Store) Saves(name string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.saves[name]
}
