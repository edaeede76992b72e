package memory

import (
	"testing"

	"idea-clustering-be/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrilldownCacheHitsOnSameVersion(t *testing.T) {
	c := NewDrilldownCache()
	topicId := uuid.New()

	clusters := []dto.TopicResponse{{Id: uuid.New(), Count: 3}}
	c.Save(topicId, 10, clusters)

	got, ok := c.Get(topicId, 10)
	require.True(t, ok)
	assert.Equal(t, clusters, got)
}

func TestDrilldownCacheMissesWhenMembershipChanges(t *testing.T) {
	c := NewDrilldownCache()
	topicId := uuid.New()

	c.Save(topicId, 10, []dto.TopicResponse{})

	_, ok := c.Get(topicId, 11)
	assert.False(t, ok, "a new member count must invalidate the cached view")

	_, ok = c.Get(uuid.New(), 10)
	assert.False(t, ok)
}

func TestDrilldownCacheInvalidateDropsAllVersionsOfTopic(t *testing.T) {
	c := NewDrilldownCache()
	topicId := uuid.New()
	otherId := uuid.New()

	// A regroup can replace a topic's members without changing its count,
	// so the old view must not survive on the same (topic, count) key.
	c.Save(topicId, 10, []dto.TopicResponse{{Id: uuid.New(), Count: 10}})
	c.Save(topicId, 12, []dto.TopicResponse{{Id: uuid.New(), Count: 12}})
	c.Save(otherId, 10, []dto.TopicResponse{{Id: uuid.New(), Count: 10}})

	c.Invalidate(topicId)

	_, ok := c.Get(topicId, 10)
	assert.False(t, ok, "invalidated topic must miss at its previous count")
	_, ok = c.Get(topicId, 12)
	assert.False(t, ok)

	got, ok := c.Get(otherId, 10)
	require.True(t, ok, "other topics keep their cached views")
	assert.Len(t, got, 1)
}
