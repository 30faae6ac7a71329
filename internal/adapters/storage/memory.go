package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/ports"
)

// MemoryKV es un KVStore en memoria. Se pierde al salir del proceso.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV crea un store vacío.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// MemoryCacheRegistry implementa ports.CacheRegistry en memoria.
// Los entries viven en el registry, así un handle de un store borrado
// lo recrea en el próximo Put igual que el backend SQLite.
type MemoryCacheRegistry struct {
	mu     sync.RWMutex
	stores map[string]map[string]domain.CachedResponse
}

// NewMemoryCacheRegistry crea un registry vacío.
func NewMemoryCacheRegistry() *MemoryCacheRegistry {
	return &MemoryCacheRegistry{stores: make(map[string]map[string]domain.CachedResponse)}
}

func (r *MemoryCacheRegistry) Open(_ context.Context, name string) (ports.CacheStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[name]; !ok {
		r.stores[name] = make(map[string]domain.CachedResponse)
	}
	return &memoryCacheStore{reg: r, name: name}, nil
}

func (r *MemoryCacheRegistry) Has(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.stores[name]
	return ok, nil
}

func (r *MemoryCacheRegistry) Names(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryCacheRegistry) Delete(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stores[name]
	delete(r.stores, name)
	return ok, nil
}

type memoryCacheStore struct {
	reg  *MemoryCacheRegistry
	name string
}

func (s *memoryCacheStore) Name() string { return s.name }

func (s *memoryCacheStore) Match(_ context.Context, key string) (domain.CachedResponse, bool, error) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	resp, ok := s.reg.stores[s.name][key]
	if !ok {
		return domain.CachedResponse{}, false, nil
	}
	return resp.Clone(), true, nil
}

func (s *memoryCacheStore) Put(_ context.Context, key string, resp domain.CachedResponse) error {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	entries, ok := s.reg.stores[s.name]
	if !ok {
		entries = make(map[string]domain.CachedResponse)
		s.reg.stores[s.name] = entries
	}
	stored := resp.Clone()
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now().UTC()
	}
	entries[key] = stored
	return nil
}

func (s *memoryCacheStore) Keys(_ context.Context) ([]string, error) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	entries := s.reg.stores[s.name]
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
