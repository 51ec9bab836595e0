package vectorstore

import (
	"iter"
	"sync"
	"sync/atomic"

	"semsearch/internal/domain"
)

// Item is a stored vector and the payload it was inserted with.
type Item struct {
	ID      int
	Vector  []float32
	Payload string
}

// Store is an append-only, in-memory vector store. Item ids are dense and
// assigned in insertion order. Once frozen the store is read-only and reads
// no longer take the lock.
type Store struct {
	mu        sync.RWMutex
	frozen    atomic.Bool
	dimension int
	vectors   [][]float32
	payloads  []string
}

// New creates an empty store. A zero dimension is fixed by the first Add.
func New(dimension int) *Store {
	if dimension < 0 {
		dimension = 0
	}
	return &Store{dimension: dimension}
}

// Add copies vec into the store and returns the new item id.
func (s *Store) Add(payload string, vec []float32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen.Load() {
		return 0, domain.ErrStoreFrozen
	}
	if s.dimension == 0 {
		if len(vec) == 0 {
			return 0, domain.NewDimensionMismatch(1, 0)
		}
		s.dimension = len(vec)
	}
	if len(vec) != s.dimension {
		return 0, domain.NewDimensionMismatch(s.dimension, len(vec))
	}
	stored := make([]float32, len(vec))
	copy(stored, vec)
	s.vectors = append(s.vectors, stored)
	s.payloads = append(s.payloads, payload)
	return len(s.vectors) - 1, nil
}

// Freeze makes the store read-only. It is idempotent.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen.Store(true)
	s.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool { return s.frozen.Load() }

// Len returns the number of stored items.
func (s *Store) Len() int {
	if s.frozen.Load() {
		return len(s.vectors)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dimension returns the fixed vector dimension, or 0 while the store is empty
// and was created without one.
func (s *Store) Dimension() int {
	if s.frozen.Load() {
		return s.dimension
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Vector returns the stored vector for id. The slice must not be mutated.
// It panics when id is out of range, like a slice index.
func (s *Store) Vector(id int) []float32 {
	if s.frozen.Load() {
		return s.vectors[id]
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors[id]
}

// Payload returns the payload stored with id.
func (s *Store) Payload(id int) string {
	if s.frozen.Load() {
		return s.payloads[id]
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payloads[id]
}

// Item returns the item with the given id and whether it exists.
func (s *Store) Item(id int) (Item, bool) {
	if !s.frozen.Load() {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	if id < 0 || id >= len(s.vectors) {
		return Item{}, false
	}
	return Item{ID: id, Vector: s.vectors[id], Payload: s.payloads[id]}, true
}

// All iterates over every item in id order. Vectors are shared with the
// store and must not be mutated.
func (s *Store) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		n := s.Len()
		for id := 0; id < n; id++ {
			item, _ := s.Item(id)
			if !yield(id, item) {
				return
			}
		}
	}
}
