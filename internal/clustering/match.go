package clustering

import (
	"sort"

	"github.com/google/uuid"
)

// PrevTopic is an existing persisted topic used for identity matching
// after a full regroup.
type PrevTopic struct {
	ID        uuid.UUID
	MemberIDs []uuid.UUID
}

// MatchPrevious maps each new group to a previous topic id by maximum
// member overlap, so regrouping an unchanged discussion does not churn
// client-visible ids. Each previous id is reused at most once; groups
// with no overlap get uuid.Nil and the caller mints fresh ids.
//
// Greedy order: larger overlap first; ties prefer the previous topic with
// more members, then the lower previous id, then the lower group index.
func MatchPrevious(groups []Group, prev []PrevTopic) []uuid.UUID {
	type pair struct {
		groupIdx int
		prevIdx  int
		overlap  int
	}

	prevMembers := make([]map[uuid.UUID]struct{}, len(prev))
	for i, p := range prev {
		set := make(map[uuid.UUID]struct{}, len(p.MemberIDs))
		for _, id := range p.MemberIDs {
			set[id] = struct{}{}
		}
		prevMembers[i] = set
	}

	pairs := make([]pair, 0)
	for gi, g := range groups {
		for pi := range prev {
			overlap := 0
			for _, id := range g.MemberIDs {
				if _, ok := prevMembers[pi][id]; ok {
					overlap++
				}
			}
			if overlap > 0 {
				pairs = append(pairs, pair{groupIdx: gi, prevIdx: pi, overlap: overlap})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if len(prev[a.prevIdx].MemberIDs) != len(prev[b.prevIdx].MemberIDs) {
			return len(prev[a.prevIdx].MemberIDs) > len(prev[b.prevIdx].MemberIDs)
		}
		if prev[a.prevIdx].ID != prev[b.prevIdx].ID {
			return lessUUID(prev[a.prevIdx].ID, prev[b.prevIdx].ID)
		}
		return a.groupIdx < b.groupIdx
	})

	assigned := make([]uuid.UUID, len(groups))
	groupTaken := make([]bool, len(groups))
	prevTaken := make([]bool, len(prev))

	for _, p := range pairs {
		if groupTaken[p.groupIdx] || prevTaken[p.prevIdx] {
			continue
		}
		assigned[p.groupIdx] = prev[p.prevIdx].ID
		groupTaken[p.groupIdx] = true
		prevTaken[p.prevIdx] = true
	}

	return assigned
}
