package clustering

import (
	"sort"
	"time"

	"idea-clustering-be/internal/pkg/apperrors"

	"github.com/google/uuid"
)

// Item is the minimal idea shape the engine clusters over.
type Item struct {
	ID        uuid.UUID
	Vector    []float32
	CreatedAt time.Time
}

// Group is one detected cluster. MemberIDs are in assignment order; the
// representative is always a member.
type Group struct {
	RepresentativeID uuid.UUID
	MemberIDs        []uuid.UUID

	repVector []float32
	sum       []float64
}

// Centroid returns the mean vector of the group's members.
func (g *Group) Centroid() []float32 {
	if len(g.MemberIDs) == 0 || len(g.sum) == 0 {
		return nil
	}
	c := make([]float32, len(g.sum))
	n := float64(len(g.MemberIDs))
	for i, v := range g.sum {
		c[i] = float32(v / n)
	}
	return c
}

func (g *Group) RepresentativeVector() []float32 {
	return g.repVector
}

type Config struct {
	Threshold      ThresholdFunc
	CandidateLimit int
}

// Result holds the derived partition. Skipped lists items that carried no
// vector (embedding not computed yet or failed); they are left unassigned
// rather than aborting the pass.
type Result struct {
	Groups  []Group
	Skipped []uuid.UUID
}

// Partition runs the assignment algorithm over a snapshot of items as an
// independent universe. Items are processed in creation order (id
// ascending on ties) so a fixed input set always yields the same
// membership partition. Used for drill-down and full regroup; the
// streaming path reuses BestCandidate/ShouldPromote against the
// persistent store.
//
// Per item:
//  1. query the representative index for nearest existing groups
//  2. take the best cosine similarity against a representative
//  3. join when it clears the adaptive threshold for the current size,
//     promoting the new idea to representative only when it sits strictly
//     closer to the group centroid than the current one
//  4. otherwise open a new singleton group
func Partition(items []Item, cfg Config) Result {
	ordered := make([]Item, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return lessUUID(ordered[i].ID, ordered[j].ID)
	})

	index := NewMemoryIndex()
	byRep := make(map[uuid.UUID]*Group)
	groups := make([]*Group, 0)
	skipped := make([]uuid.UUID, 0)

	assigned := 0
	for _, item := range ordered {
		if len(item.Vector) == 0 {
			skipped = append(skipped, item.ID)
			continue
		}

		threshold := cfg.Threshold(assigned)
		assigned++

		hits := index.QueryNearest(item.Vector, cfg.CandidateLimit)
		if len(hits) > 0 && hits[0].Similarity >= threshold {
			g := byRep[hits[0].ID]
			g.join(item)
			if g.RepresentativeID != hits[0].ID {
				// representative promoted; reindex under the new id
				index.Remove(hits[0].ID)
				index.Upsert(g.RepresentativeID, g.repVector)
				delete(byRep, hits[0].ID)
				byRep[g.RepresentativeID] = g
			}
			continue
		}

		g := &Group{
			RepresentativeID: item.ID,
			MemberIDs:        []uuid.UUID{item.ID},
			repVector:        item.Vector,
			sum:              toSum(item.Vector),
		}
		groups = append(groups, g)
		byRep[item.ID] = g
		index.Upsert(item.ID, item.Vector)
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return Result{Groups: out, Skipped: skipped}
}

func (g *Group) join(item Item) {
	g.MemberIDs = append(g.MemberIDs, item.ID)
	for i, v := range item.Vector {
		g.sum[i] += float64(v)
	}

	centroid := g.Centroid()
	if ShouldPromote(item.Vector, g.repVector, centroid) {
		g.RepresentativeID = item.ID
		g.repVector = item.Vector
	}
}

func toSum(vec []float32) []float64 {
	s := make([]float64, len(vec))
	for i, v := range vec {
		s[i] = float64(v)
	}
	return s
}

// ShouldPromote decides the representative policy: keep the original
// unless the new idea is strictly closer to the member centroid.
func ShouldPromote(newVec, repVec, centroid []float32) bool {
	return Cosine(newVec, centroid) > Cosine(repVec, centroid)
}

// Candidate is one existing topic representative for streaming assignment.
type Candidate struct {
	TopicID uuid.UUID
	Vector  []float32
}

// BestCandidate returns the index of the most similar candidate and its
// similarity, or -1 when there are none. Ties keep the earlier candidate,
// so callers must pass candidates in a deterministic order.
func BestCandidate(vec []float32, candidates []Candidate) (int, float64) {
	best := -1
	bestSim := -1.0
	for i, c := range candidates {
		sim := Cosine(vec, c.Vector)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}
	if best == -1 {
		return -1, 0
	}
	return best, bestSim
}

// ValidateGroups checks the partition invariants before anything is
// committed: every representative is a member, and no item belongs to
// more than one group.
func ValidateGroups(groups []Group) error {
	seen := make(map[uuid.UUID]struct{})
	for _, g := range groups {
		repFound := false
		for _, id := range g.MemberIDs {
			if _, dup := seen[id]; dup {
				return apperrors.NewClusteringConsistency("idea assigned to more than one cluster")
			}
			seen[id] = struct{}{}
			if id == g.RepresentativeID {
				repFound = true
			}
		}
		if !repFound {
			return apperrors.NewClusteringConsistency("representative is not a member of its cluster")
		}
	}
	return nil
}
