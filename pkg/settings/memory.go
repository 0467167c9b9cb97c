package settings

import (
	"sync"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// MemoryStore is an in-process Store, used in tests and when no file is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]int
	watchers watchers
}

// NewMemoryStore returns a store seeded with initial.
func NewMemoryStore(initial map[string]int) *MemoryStore {
	values := make(map[string]int, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

// GetInt implements Store.
func (s *MemoryStore) GetInt(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return 0, errors.NotFoundf("setting %q", key)
	}
	return v, nil
}

// PutInt implements Store. Watchers run synchronously after the write.
func (s *MemoryStore) PutInt(key string, value int) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	s.watchers.notify(key)
	return nil
}

// Delete removes key, notifying watchers if it existed.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	_, ok := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()

	if ok {
		s.watchers.notify(key)
	}
}

// Watch implements Store.
func (s *MemoryStore) Watch(key string, fn WatchFunc) (func(), error) {
	return s.watchers.add(key, fn)
}

// WatcherCount reports how many callbacks are registered for key.
func (s *MemoryStore) WatcherCount(key string) int {
	return s.watchers.count(key)
}
