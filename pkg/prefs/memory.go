package prefs

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps views in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]View
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{views: make(map[string]View)}
}

func (s *MemoryStore) Load(ctx context.Context, name string) (*View, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	v.Collapsed = slices.Clone(v.Collapsed)
	return &v, nil
}

func (s *MemoryStore) Save(ctx context.Context, v *View) error {
	if err := ValidateName(v.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v.UpdatedAt = time.Now().UTC()
	c := *v
	c.Collapsed = slices.Clone(v.Collapsed)
	s.views[v.Name] = c
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, name)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.views)), nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
