package memory

import (
	"fmt"
	"strings"
	"time"

	"idea-clustering-be/internal/dto"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DrilldownCache memoizes derived sub-cluster views keyed by
// (topic id, member-set version). The version is the topic's member
// count at computation time, so any membership change produces a miss.
type DrilldownCache struct {
	cache *cache.Cache
}

func NewDrilldownCache() *DrilldownCache {
	// drill-downs are repeated in bursts while a facilitator explores;
	// 10 minutes of reuse is plenty
	c := cache.New(10*time.Minute, 5*time.Minute)
	return &DrilldownCache{
		cache: c,
	}
}

func key(topicId uuid.UUID, version int) string {
	return fmt.Sprintf("%s:%d", topicId, version)
}

func (r *DrilldownCache) Save(topicId uuid.UUID, version int, clusters []dto.TopicResponse) {
	r.cache.Set(key(topicId, version), clusters, cache.DefaultExpiration)
}

func (r *DrilldownCache) Get(topicId uuid.UUID, version int) ([]dto.TopicResponse, bool) {
	if x, found := r.cache.Get(key(topicId, version)); found {
		return x.([]dto.TopicResponse), true
	}
	return nil, false
}

// Invalidate drops every cached view of a topic. Regroup can keep a
// topic's id while replacing its members at an unchanged count, so the
// count alone cannot version across regroups.
func (r *DrilldownCache) Invalidate(topicId uuid.UUID) {
	prefix := topicId.String() + ":"
	for k := range r.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			r.cache.Delete(k)
		}
	}
}
