package clustering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexQueryNearestOrdering(t *testing.T) {
	ix := NewMemoryIndex()

	near := uuid.New()
	far := uuid.New()
	ix.Upsert(near, []float32{1, 0})
	ix.Upsert(far, []float32{0, 1})

	hits := ix.QueryNearest([]float32{1, 0}, 10)

	require.Len(t, hits, 2)
	assert.Equal(t, near, hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, far, hits[1].ID)
}

func TestMemoryIndexTieBreaksByIdAscending(t *testing.T) {
	ix := NewMemoryIndex()

	lo := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	hi := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	ix.Upsert(hi, []float32{1, 0})
	ix.Upsert(lo, []float32{1, 0})

	hits := ix.QueryNearest([]float32{1, 0}, 10)

	require.Len(t, hits, 2)
	assert.Equal(t, lo, hits[0].ID)
	assert.Equal(t, hi, hits[1].ID)
}

func TestMemoryIndexLimitAndRemove(t *testing.T) {
	ix := NewMemoryIndex()
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		ix.Upsert(ids[i], []float32{1, float32(i)})
	}

	assert.Equal(t, 5, ix.Len())
	assert.Len(t, ix.QueryNearest([]float32{1, 0}, 3), 3)

	ix.Remove(ids[0])
	assert.Equal(t, 4, ix.Len())
}

func TestCosineEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}
