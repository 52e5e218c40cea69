// Package cachetest provides an in-process cache.Store for tests.
package cachetest

import "sync"

// Map is a cache.Store backed by a map. Entries never expire.
type Map struct {
	mu      sync.Mutex
	entries map[string][]byte
	Deletes []string
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: map[string][]byte{}}
}

func (m *Map) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Map) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

func (m *Map) Delete(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
		m.Deletes = append(m.Deletes, k)
	}
}

// Has reports whether key is cached.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}
