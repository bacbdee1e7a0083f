package state

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-resume/layering"
)

// MemoryStore is an in-memory Store for tests and examples. Snapshots are
// deep-copied on the way in and out.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	now     func() time.Time
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}, now: time.Now}
}

func (s *MemoryStore[T]) Load(_ context.Context, key string) (T, Meta, bool, error) {
	var zero T
	if err := ValidateKey(key); err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return layering.Clone(record.snapshot), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, key string, snapshot T, meta Meta) (Meta, error) {
	if err := ValidateKey(key); err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[key]
	next, err := nextMeta(current.meta, exists, meta, s.now())
	if err != nil {
		return Meta{}, err
	}
	s.records[key] = memoryRecord[T]{snapshot: layering.Clone(snapshot), meta: next}
	return cloneMeta(next), nil
}

// Keys returns the stored keys in no particular order.
func (s *MemoryStore[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	return keys
}
