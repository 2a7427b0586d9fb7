package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *VectorStore {
	t.Helper()
	s := NewVectorStore(2)
	require.NoError(t, s.Insert(0, []float32{0, 0}))
	require.NoError(t, s.Insert(1, []float32{1, 0}))
	require.NoError(t, s.Insert(2, []float32{3, 4}))
	require.NoError(t, s.Insert(3, []float32{0, 2}))
	return s
}

func TestVectorStore_SearchOrdersByDistance(t *testing.T) {
	s := seededStore(t)

	results, err := s.Search([]float32{0, 0}, 4)

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []int{0, 1, 3, 2}, []int{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID, results[3].ChunkID})
	assert.InDelta(t, 0, results[0].Distance, 1e-9)
	assert.InDelta(t, 1, results[1].Distance, 1e-9)
	assert.InDelta(t, 2, results[2].Distance, 1e-9)
	assert.InDelta(t, 5, results[3].Distance, 1e-9)
}

func TestVectorStore_TiesBreakByLowerChunkID(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.Insert(5, []float32{1, 0}))

	results, err := s.Search([]float32{0, 0}, 3)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 0, results[0].ChunkID)
	assert.Equal(t, 1, results[1].ChunkID)
	assert.Equal(t, 5, results[2].ChunkID)
}

func TestVectorStore_KClampedToSize(t *testing.T) {
	s := seededStore(t)

	results, err := s.Search([]float32{0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, results, 4)

	results, err = s.Search([]float32{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorStore_EmptyStoreReturnsNoResults(t *testing.T) {
	s := NewVectorStore(2)

	results, err := s.Search([]float32{0, 0}, 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorStore_DuplicateChunkIDRejected(t *testing.T) {
	s := NewVectorStore(2)
	require.NoError(t, s.Insert(7, []float32{1, 1}))

	err := s.Insert(7, []float32{2, 2})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
	assert.Equal(t, 1, s.Size())
}

func TestVectorStore_DimensionMismatchRejected(t *testing.T) {
	s := NewVectorStore(3)

	require.Error(t, s.Insert(0, []float32{1, 2}))

	require.NoError(t, s.Insert(0, []float32{1, 2, 3}))
	_, err := s.Search([]float32{1, 2}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestVectorStore_ClearResetsStore(t *testing.T) {
	s := seededStore(t)
	require.Equal(t, 4, s.Size())

	s.Clear()

	assert.Equal(t, 0, s.Size())
	results, err := s.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Ids are reusable after a clear; rebuilds start from scratch.
	require.NoError(t, s.Insert(0, []float32{1, 1}))
	assert.Equal(t, 1, s.Size())
}

func TestVectorStore_SearchDeterministic(t *testing.T) {
	s := seededStore(t)

	first, err := s.Search([]float32{2, 1}, 4)
	require.NoError(t, err)
	second, err := s.Search([]float32{2, 1}, 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
