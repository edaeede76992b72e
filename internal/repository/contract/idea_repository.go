package contract

import (
	"context"

	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredIdea pairs an idea with its cosine similarity to a query vector.
type ScoredIdea struct {
	Idea       *entity.Idea
	Similarity float64
}

type IdeaRepository interface {
	Create(ctx context.Context, idea *entity.Idea) error
	Update(ctx context.Context, idea *entity.Idea) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Idea, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Idea, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SetEmbedding stores the embedding computed for an idea. Write-once:
	// embeddings are immutable after creation.
	SetEmbedding(ctx context.Context, ideaId uuid.UUID, embedding []float32) error

	// AssignTopics rewrites the topic assignment for a batch of ideas in
	// one statement per topic. Used by regroup's swap step.
	AssignTopics(ctx context.Context, assignments map[uuid.UUID][]uuid.UUID) error

	// SearchSimilarWithScore runs a pgvector nearest-neighbor query over
	// ideas in one discussion, returning cosine similarities at or above
	// the threshold, best first, id ascending on ties.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, discussionId uuid.UUID, threshold float64) ([]*ScoredIdea, error)

	// TopicCentroid returns the mean embedding of a topic's members,
	// computed in the database.
	TopicCentroid(ctx context.Context, topicId uuid.UUID) ([]float32, error)
}
