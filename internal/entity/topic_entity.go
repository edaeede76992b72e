package entity

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a cluster of semantically similar ideas within one discussion.
// Invariants (checked before any commit):
//   - RepresentativeIdeaId is a member of the topic
//   - Count equals the member count at rest
//
// ParentTopicId stays nil for persisted topics; drill-down sub-topics are
// derived views and are never written back.
type Topic struct {
	Id                   uuid.UUID
	DiscussionId         uuid.UUID
	ParentTopicId        *uuid.UUID
	RepresentativeIdeaId uuid.UUID
	Count                int
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}
