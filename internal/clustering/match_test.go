package clustering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPreviousKeepsIdsForUnchangedPartition(t *testing.T) {
	a1, a2, b1 := uuid.New(), uuid.New(), uuid.New()
	prevA, prevB := uuid.New(), uuid.New()

	groups := []Group{
		{RepresentativeID: a1, MemberIDs: []uuid.UUID{a1, a2}},
		{RepresentativeID: b1, MemberIDs: []uuid.UUID{b1}},
	}
	prev := []PrevTopic{
		{ID: prevA, MemberIDs: []uuid.UUID{a1, a2}},
		{ID: prevB, MemberIDs: []uuid.UUID{b1}},
	}

	matched := MatchPrevious(groups, prev)

	require.Len(t, matched, 2)
	assert.Equal(t, prevA, matched[0])
	assert.Equal(t, prevB, matched[1])
}

func TestMatchPreviousUsesEachPreviousIdOnce(t *testing.T) {
	m1, m2, m3 := uuid.New(), uuid.New(), uuid.New()
	prevID := uuid.New()

	// one previous topic split into two new groups: only the group with
	// the larger overlap inherits the id
	groups := []Group{
		{RepresentativeID: m1, MemberIDs: []uuid.UUID{m1, m2}},
		{RepresentativeID: m3, MemberIDs: []uuid.UUID{m3}},
	}
	prev := []PrevTopic{
		{ID: prevID, MemberIDs: []uuid.UUID{m1, m2, m3}},
	}

	matched := MatchPrevious(groups, prev)

	assert.Equal(t, prevID, matched[0])
	assert.Equal(t, uuid.Nil, matched[1])
}

func TestMatchPreviousNoOverlapMintsNothing(t *testing.T) {
	groups := []Group{
		{RepresentativeID: uuid.New(), MemberIDs: []uuid.UUID{uuid.New()}},
	}
	prev := []PrevTopic{
		{ID: uuid.New(), MemberIDs: []uuid.UUID{uuid.New()}},
	}

	matched := MatchPrevious(groups, prev)

	assert.Equal(t, uuid.Nil, matched[0])
}

func TestMatchPreviousMergePrefersLargerPreviousTopic(t *testing.T) {
	big1, big2, big3, small1 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	prevBig, prevSmall := uuid.New(), uuid.New()

	// two previous topics merged into one group with equal overlap counts
	// broken by previous member count
	groups := []Group{
		{RepresentativeID: big1, MemberIDs: []uuid.UUID{big1, small1}},
	}
	prev := []PrevTopic{
		{ID: prevSmall, MemberIDs: []uuid.UUID{small1}},
		{ID: prevBig, MemberIDs: []uuid.UUID{big1, big2, big3}},
	}

	matched := MatchPrevious(groups, prev)

	assert.Equal(t, prevBig, matched[0])
}
