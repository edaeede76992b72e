package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByDiscussion scopes a query to one discussion.
type ByDiscussion struct {
	DiscussionId uuid.UUID
}

func (s ByDiscussion) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("discussion_id = ?", s.DiscussionId)
}

// ByTopic selects the member ideas of a topic.
type ByTopic struct {
	TopicId uuid.UUID
}

func (s ByTopic) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id = ?", s.TopicId)
}

// TopLevelOnly restricts topics to those without a parent.
type TopLevelOnly struct{}

func (s TopLevelOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("parent_topic_id IS NULL")
}

// Assigned selects ideas that already belong to a topic. The adaptive
// threshold counts these, not raw submissions still in the queue.
type Assigned struct{}

func (s Assigned) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id IS NOT NULL")
}

// SubmissionOrder is the stable ordering used everywhere members are
// listed: creation time ascending, id ascending on ties.
type SubmissionOrder struct{}

func (s SubmissionOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}
