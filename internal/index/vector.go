// Package index holds the per-document retrieval indexes: a flat
// vector store for semantic search and a structural index over
// section titles. Both are rebuilt wholesale on upload and torn down
// together on reset.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Result is one vector search hit.
type Result struct {
	ChunkID  int
	Distance float64
}

// VectorStore is an exact flat index over chunk vectors. Search cost
// is linear in the chunk count, which a single document keeps small
// enough that approximate indexing would buy nothing.
type VectorStore struct {
	mu    sync.RWMutex
	dim   int
	ids   []int
	vecs  [][]float32
	slots map[int]int
}

func NewVectorStore(dim int) *VectorStore {
	return &VectorStore{dim: dim, slots: make(map[int]int)}
}

// Insert appends one chunk vector. Duplicate chunk ids and dimension
// mismatches are errors; a rebuild replaces the store instead of
// mutating it.
func (s *VectorStore) Insert(chunkID int, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(vec) != s.dim {
		return fmt.Errorf("vector dimension %d, want %d", len(vec), s.dim)
	}
	if _, ok := s.slots[chunkID]; ok {
		return fmt.Errorf("duplicate chunk id %d", chunkID)
	}
	s.slots[chunkID] = len(s.ids)
	s.ids = append(s.ids, chunkID)
	s.vecs = append(s.vecs, vec)
	return nil
}

// Search returns the k nearest chunks by Euclidean distance, ties
// broken by lower chunk id. k is clamped to the store size; searching
// an empty store returns no results.
func (s *VectorStore) Search(query []float32, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ids) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d, want %d", len(query), s.dim)
	}
	results := make([]Result, len(s.ids))
	for i, vec := range s.vecs {
		results[i] = Result{ChunkID: s.ids[i], Distance: sqDistance(query, vec)}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if k < len(results) {
		results = results[:k]
	}
	for i := range results {
		results[i].Distance = math.Sqrt(results[i].Distance)
	}
	return results, nil
}

// Size reports the current vector count.
func (s *VectorStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Clear drops all vectors.
func (s *VectorStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.vecs = nil
	s.slots = make(map[int]int)
}

// sqDistance accumulates in float64; float32 sums drift on long vectors.
func sqDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
