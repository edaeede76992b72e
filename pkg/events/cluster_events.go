package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeClustersUpdated = "CLUSTERS_UPDATED"
	TypeProcessingError = "PROCESSING_ERROR"
)

// NewClustersUpdated carries the full replacement snapshot of a
// discussion's top-level clusters. Subscribers must treat the payload as
// the complete new state, never a diff; duplicates and reordering across
// deliveries are harmless by design of the contract.
func NewClustersUpdated(discussionId uuid.UUID, clusters interface{}) Event {
	return BaseEvent{
		Type: TypeClustersUpdated,
		Data: map[string]interface{}{
			"discussion_id": discussionId.String(),
			"clusters":      clusters,
		},
		OccurredAt: time.Now(),
	}
}

func NewProcessingError(discussionId, ideaId uuid.UUID, errMessage string) Event {
	return BaseEvent{
		Type: TypeProcessingError,
		Data: map[string]interface{}{
			"discussion_id": discussionId.String(),
			"idea_id":       ideaId.String(),
			"error":         errMessage,
		},
		OccurredAt: time.Now(),
	}
}
