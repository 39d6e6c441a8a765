package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used in tests and as a stand-in for
// the external document store. Documents are copied through a JSON
// round-trip on the way in and out so callers can never mutate shared
// state, and so stored values carry the same types a real JSON backend
// would return.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Doc // collection -> id -> doc
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]Doc)}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(d)
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, doc Doc) error {
	clean, err := cloneDoc(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]Doc)
	}
	s.data[collection][id] = clean
	return nil
}

func (s *MemoryStore) Merge(_ context.Context, collection, id string, fields Doc) error {
	clean, err := cloneDoc(fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]Doc)
	}
	cur, ok := s.data[collection][id]
	if !ok {
		s.data[collection][id] = clean
		return nil
	}
	for k, v := range clean {
		cur[k] = v
	}
	return nil
}

func (s *MemoryStore) QueryByField(_ context.Context, collection, field, value string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for id, d := range s.data[collection] {
		if sv, ok := d[field].(string); ok && sv == value {
			c, err := cloneDoc(d)
			if err != nil {
				return nil, err
			}
			out = append(out, Record{ID: id, Doc: c})
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for id, d := range s.data[collection] {
		c, err := cloneDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Doc: c})
	}
	sortRecords(out)
	return out, nil
}

// sortRecords orders by id so listings are deterministic across runs.
func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}

func cloneDoc(d Doc) (Doc, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out Doc
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}
