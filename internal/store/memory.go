package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used when no database is available.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	meta    map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{meta: make(map[string]string)}
}

func (s *MemoryStore) Insert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if len(s.records) > 0 && len(r.Vector) != len(s.records[0].Vector) {
			return fmt.Errorf("insert record %s: dimension %d, want %d", r.ID, len(r.Vector), len(s.records[0].Vector))
		}
		s.records = append(s.records, r)
	}
	return nil
}

// Search ranks every record by brute-force cosine similarity. Ties keep
// insertion order.
func (s *MemoryStore) Search(_ context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.records))
	for _, r := range s.records {
		hits = append(hits, Hit{
			ID:         r.ID,
			Text:       r.Text,
			Metadata:   r.Metadata,
			Similarity: clamp01(cosine(query, r.Vector)),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) GetMeta(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta[key], nil
}

func (s *MemoryStore) SetMeta(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[key] = value
	return nil
}

func (s *MemoryStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
