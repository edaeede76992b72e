package entity

import (
	"time"

	"github.com/google/uuid"
)

// Idea is a single free-text submission. Exactly one of UserId/SessionId
// identifies the submitter. The embedding is computed once after creation
// and is immutable; TopicId is only ever written by the clustering engine.
type Idea struct {
	Id               uuid.UUID
	DiscussionId     uuid.UUID
	Text             string
	Embedding        []float32
	UserId           *uuid.UUID
	SessionId        *uuid.UUID
	TopicId          *uuid.UUID
	SubmitterContext map[string]interface{}
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// HasEmbedding reports whether the embedding step already ran.
func (i *Idea) HasEmbedding() bool {
	return len(i.Embedding) > 0
}
