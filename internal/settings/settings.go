// Package settings is a process-wide read-through cache over the runtime
// key/value settings table.
package settings

import (
	"context"
	"sync"
)

// Loader fetches the full settings map from the backing store.
type Loader interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
}

// Service caches settings after the first access. Refresh drops the cache
// so the next access reloads; there is no ambient global state.
type Service struct {
	mu     sync.RWMutex
	loader Loader
	cache  map[string]string
}

func NewService(loader Loader) *Service {
	return &Service{loader: loader}
}

// All returns the cached settings, loading them on first use.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	cache := s.cache
	s.mu.RUnlock()
	if cache != nil {
		return cache, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		return s.cache, nil
	}

	loaded, err := s.loader.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = map[string]string{}
	}
	s.cache = loaded
	return s.cache, nil
}

// Get returns one setting value; ok is false when the key is absent.
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	all, err := s.All(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := all[key]
	return v, ok, nil
}

// Refresh invalidates the cache; the next access hits the store again.
func (s *Service) Refresh() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}
