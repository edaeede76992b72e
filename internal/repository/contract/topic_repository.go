package contract

import (
	"context"

	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/repository/specification"

	"github.com/google/uuid"
)

// TopicRepresentative is a topic id with its representative idea's
// embedding, used as the candidate set for streaming assignment.
type TopicRepresentative struct {
	TopicId              uuid.UUID
	RepresentativeIdeaId uuid.UUID
	RepresentativeText   string
	Embedding            []float32
}

type TopicRepository interface {
	Create(ctx context.Context, topic *entity.Topic) error
	Update(ctx context.Context, topic *entity.Topic) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ListTopLevel returns a discussion's top-level topics ordered by
	// member count descending, creation time ascending on ties.
	ListTopLevel(ctx context.Context, discussionId uuid.UUID) ([]*entity.Topic, error)

	// GetMembers returns a topic's member ideas in submission order
	// (creation time ascending, id ascending on ties).
	GetMembers(ctx context.Context, topicId uuid.UUID) ([]*entity.Idea, error)

	// ListRepresentatives returns the representative embedding of every
	// top-level topic in the discussion, in deterministic order
	// (creation time ascending, id ascending).
	ListRepresentatives(ctx context.Context, discussionId uuid.UUID) ([]*TopicRepresentative, error)

	// DeleteByDiscussion removes all topics of a discussion. Used inside
	// the regroup transaction, after new assignments are computed.
	DeleteByDiscussion(ctx context.Context, discussionId uuid.UUID) error
}
