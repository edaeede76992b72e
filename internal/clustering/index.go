package clustering

import (
	"bytes"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ScoredID is one nearest-neighbor hit.
type ScoredID struct {
	ID         uuid.UUID
	Similarity float64
}

// MemoryIndex is an incremental in-process similarity index over unit
// vectors. The engine keeps one per clustering pass (representative
// vectors); the persistent path uses the pgvector-backed repository
// instead. Ties at equal similarity break by id ascending so a fixed
// input set always yields the same ordering.
type MemoryIndex struct {
	mu   sync.RWMutex
	vecs map[uuid.UUID][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		vecs: make(map[uuid.UUID][]float32),
	}
}

func (ix *MemoryIndex) Upsert(id uuid.UUID, vec []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	stored := make([]float32, len(vec))
	copy(stored, vec)
	ix.vecs[id] = stored
}

func (ix *MemoryIndex) Remove(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.vecs, id)
}

func (ix *MemoryIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vecs)
}

// QueryNearest returns up to k entries ordered by similarity descending,
// id ascending on ties.
func (ix *MemoryIndex) QueryNearest(vec []float32, k int) []ScoredID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]ScoredID, 0, len(ix.vecs))
	for id, stored := range ix.vecs {
		hits = append(hits, ScoredID{ID: id, Similarity: Cosine(vec, stored)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return lessUUID(hits[i].ID, hits[j].ID)
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Cosine computes cosine similarity. Mismatched or zero-magnitude vectors
// score 0 rather than panicking; embedding providers normalize to unit
// length so the division is usually exact.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func lessUUID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
