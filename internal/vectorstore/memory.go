package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// MemoryStore is a brute-force cosine index held in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	closed    bool
	nextSeq   int
	entries   map[string]memoryEntry
	meta      map[string]string
}

type memoryEntry struct {
	seq     int
	product catalog.Product
	vector  []float32
}

// NewMemoryStore creates an empty in-memory store. A non-positive dimension
// is learned from the first inserted vector.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		entries:   make(map[string]memoryEntry),
		meta:      make(map[string]string),
	}
}

// Search finds the k nearest neighbors using cosine similarity.
func (s *MemoryStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]catalog.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, searchFailed(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, searchFailed(ErrClosed)
	}
	if s.dimension > 0 && len(query) != s.dimension {
		return nil, searchFailed(fmt.Errorf("%w: expected %d, got %d", ErrVectorDimensionMismatch, s.dimension, len(query)))
	}

	q := normalizeVector(query)
	candidates := make([]scoredEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Matches(e.product) {
			continue
		}
		candidates = append(candidates, scoredEntry{
			seq:        e.seq,
			product:    e.product,
			similarity: cosineSimilarity(q, e.vector),
		})
	}

	return topK(candidates, k), nil
}

// Get returns a product and a copy of its vector.
func (s *MemoryStore) Get(ctx context.Context, code string) (*catalog.Product, []float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, nil, searchFailed(ErrClosed)
	}

	e, ok := s.entries[code]
	if !ok {
		return nil, nil, ErrNotFound
	}

	p := e.product.Clone()
	vec := make([]float32, len(e.vector))
	copy(vec, e.vector)
	return &p, vec, nil
}

// Upsert adds or replaces products.
func (s *MemoryStore) Upsert(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	for _, e := range entries {
		if e.Product.Code == "" {
			return fmt.Errorf("upsert: product code is required")
		}
		if len(e.Vector) == 0 {
			continue
		}
		if s.dimension <= 0 {
			s.dimension = len(e.Vector)
		}
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d for %s", ErrVectorDimensionMismatch, s.dimension, len(e.Vector), e.Product.Code)
		}

		seq := s.nextSeq
		if prev, ok := s.entries[e.Product.Code]; ok {
			seq = prev.seq
		} else {
			s.nextSeq++
		}

		s.entries[e.Product.Code] = memoryEntry{
			seq:     seq,
			product: e.Product.Clone(),
			vector:  normalizeVector(e.Vector),
		}
	}

	return nil
}

// Count returns the number of indexed products.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, searchFailed(ErrClosed)
	}
	return int64(len(s.entries)), nil
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// GetMeta returns a catalog metadata value.
func (s *MemoryStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.meta[key]
	return v, ok, nil
}

// SetMeta stores a catalog metadata value.
func (s *MemoryStore) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.meta[key] = value
	return nil
}
