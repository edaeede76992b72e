package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitIdeaRequest struct {
	Text             string                 `json:"text" validate:"required,min=1,max=500"`
	SubmitterContext map[string]interface{} `json:"submitter_context"`
}

type IdeaResponse struct {
	Id           uuid.UUID  `json:"id"`
	DiscussionId uuid.UUID  `json:"discussion_id"`
	Text         string     `json:"text"`
	TopicId      *uuid.UUID `json:"topic_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ClusterIdeaMessage is the payload queued for the embed+assign worker.
type ClusterIdeaMessage struct {
	IdeaId       uuid.UUID `json:"idea_id"`
	DiscussionId uuid.UUID `json:"discussion_id"`
}
