// Package cache implements query.Store in memory and on Redis.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/colegio/core/query"
)

var nowFunc = time.Now // mockable

type entry struct {
	data    []byte
	expires time.Time // zero: never
}

// MemoryStore is a process-local query.Store.
type MemoryStore struct {
	mutex sync.RWMutex
	table map[string]entry
}

var _ query.Store = (*MemoryStore)(nil) // interface compliance check

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{table: make(map[string]entry)}
}

func (s *MemoryStore) Get(_ context.Context, key query.Key) ([]byte, error) {
	s.mutex.RLock()
	e, ok := s.table[key.String()]
	s.mutex.RUnlock()

	if !ok {
		return nil, query.ErrMiss
	}
	if !e.expires.IsZero() && !nowFunc().Before(e.expires) {
		s.mutex.Lock()
		delete(s.table, key.String())
		s.mutex.Unlock()
		return nil, query.ErrMiss
	}
	return copyBytes(e.data), nil
}

func (s *MemoryStore) Set(_ context.Context, key query.Key, data []byte, ttl time.Duration) error {
	e := entry{data: copyBytes(data)}
	if ttl > 0 {
		e.expires = nowFunc().Add(ttl)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[key.String()] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key query.Key) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, key.String())
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix query.Key) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for k := range s.table {
		if query.MatchesEncoded(k, prefix) {
			delete(s.table, k)
		}
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.table)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
