package clustering

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Threshold:      NewLogThreshold(0.55, 0.03, 0.80),
		CandidateLimit: 10,
	}
}

func makeItems(vectors [][]float32) []Item {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := make([]Item, len(vectors))
	for i, v := range vectors {
		items[i] = Item{
			ID:        uuid.New(),
			Vector:    v,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return items
}

func TestPartitionDuplicatesShareOneGroup(t *testing.T) {
	items := makeItems([][]float32{
		{1, 0, 0},
		{1, 0, 0},
		{1, 0, 0},
	})

	result := Partition(items, testConfig())

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].MemberIDs, 3)
	assert.Empty(t, result.Skipped)
	require.NoError(t, ValidateGroups(result.Groups))
}

func TestPartitionSeparatesDistinctThemes(t *testing.T) {
	items := makeItems([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})

	result := Partition(items, testConfig())

	require.Len(t, result.Groups, 3)
	assert.Len(t, result.Groups[0].MemberIDs, 2)
	assert.Len(t, result.Groups[1].MemberIDs, 2)
	assert.Len(t, result.Groups[2].MemberIDs, 1)
	require.NoError(t, ValidateGroups(result.Groups))
}

func TestPartitionSkipsItemsWithoutVectors(t *testing.T) {
	items := makeItems([][]float32{
		{1, 0, 0},
		nil,
		{1, 0, 0},
	})

	result := Partition(items, testConfig())

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].MemberIDs, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, items[1].ID, result.Skipped[0])
}

func TestPartitionIsDeterministicUnderShuffle(t *testing.T) {
	items := makeItems([][]float32{
		{1, 0, 0},
		{0.99, 0.1, 0},
		{0, 1, 0},
		{0.1, 0.99, 0},
		{0, 0, 1},
		{1, 0, 0},
	})

	first := Partition(items, testConfig())

	shuffled := make([]Item, len(items))
	copy(shuffled, items)
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		again := Partition(shuffled, testConfig())

		require.Len(t, again.Groups, len(first.Groups))
		for i := range first.Groups {
			assert.Equal(t, first.Groups[i].MemberIDs, again.Groups[i].MemberIDs)
			assert.Equal(t, first.Groups[i].RepresentativeID, again.Groups[i].RepresentativeID)
		}
	}
}

func TestPartitionRepresentativeIsAlwaysMember(t *testing.T) {
	vectors := make([][]float32, 0, 20)
	for i := 0; i < 10; i++ {
		vectors = append(vectors, []float32{1, float32(i) * 0.01, 0})
	}
	for i := 0; i < 10; i++ {
		vectors = append(vectors, []float32{0, 1, float32(i) * 0.01})
	}

	result := Partition(makeItems(vectors), testConfig())

	require.NoError(t, ValidateGroups(result.Groups))
	for _, g := range result.Groups {
		assert.Contains(t, g.MemberIDs, g.RepresentativeID)
	}
}

func TestDrilldownStyleRepartitionSplitsCoarseTopic(t *testing.T) {
	// A topic that absorbed two sub-themes under a loose early threshold:
	// re-clustering its members as a fresh universe separates them again.
	vectors := [][]float32{
		{1, 0, 0},
		{0.98, 0.2, 0},
		{0.97, 0.24, 0},
		{0, 1, 0},
		{0.2, 0.98, 0},
		{0.24, 0.97, 0},
	}

	result := Partition(makeItems(vectors), testConfig())

	require.Len(t, result.Groups, 2)
	assert.Len(t, result.Groups[0].MemberIDs, 3)
	assert.Len(t, result.Groups[1].MemberIDs, 3)
}

func TestShouldPromote(t *testing.T) {
	centroid := []float32{1, 1, 0}

	assert.True(t, ShouldPromote([]float32{1, 1, 0}, []float32{1, 0, 0}, centroid))
	assert.False(t, ShouldPromote([]float32{0, 0, 1}, []float32{1, 0, 0}, centroid))
	// equal similarity keeps the incumbent
	assert.False(t, ShouldPromote([]float32{1, 0, 0}, []float32{0, 1, 0}, centroid))
}

func TestBestCandidate(t *testing.T) {
	a := Candidate{TopicID: uuid.New(), Vector: []float32{1, 0}}
	b := Candidate{TopicID: uuid.New(), Vector: []float32{0, 1}}

	idx, sim := BestCandidate([]float32{1, 0}, []Candidate{a, b})
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 1.0, sim, 1e-9)

	idx, sim = BestCandidate([]float32{0, 1}, []Candidate{a, b})
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 1.0, sim, 1e-9)

	// no candidates
	idx, _ = BestCandidate([]float32{1, 0}, nil)
	assert.Equal(t, -1, idx)

	// exact tie keeps the earlier candidate
	c := Candidate{TopicID: uuid.New(), Vector: []float32{1, 0}}
	idx, _ = BestCandidate([]float32{1, 0}, []Candidate{a, c})
	assert.Equal(t, 0, idx)
}

func TestValidateGroupsRejectsDuplicateMembership(t *testing.T) {
	shared := uuid.New()
	groups := []Group{
		{RepresentativeID: shared, MemberIDs: []uuid.UUID{shared}},
		{RepresentativeID: shared, MemberIDs: []uuid.UUID{shared}},
	}

	err := ValidateGroups(groups)
	require.Error(t, err)
}

func TestValidateGroupsRejectsForeignRepresentative(t *testing.T) {
	groups := []Group{
		{RepresentativeID: uuid.New(), MemberIDs: []uuid.UUID{uuid.New()}},
	}

	err := ValidateGroups(groups)
	require.Error(t, err)
}
