package dto

import (
	"github.com/google/uuid"
)

type TopicResponse struct {
	Id                 uuid.UUID      `json:"id"`
	DiscussionId       uuid.UUID      `json:"discussion_id"`
	ParentTopicId      *uuid.UUID     `json:"parent_topic_id,omitempty"`
	RepresentativeText string         `json:"representative_text"`
	Count              int            `json:"count"`
	Ideas              []IdeaResponse `json:"ideas"`
}

type DrilldownRequest struct {
	TopicId uuid.UUID `json:"topic_id" validate:"required"`
}
