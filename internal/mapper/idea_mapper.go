package mapper

import (
	"encoding/json"
	"time"

	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type IdeaMapper struct{}

func NewIdeaMapper() *IdeaMapper {
	return &IdeaMapper{}
}

func (m *IdeaMapper) ToEntity(e *model.Idea) *entity.Idea {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var submitterContext map[string]interface{}
	if len(e.SubmitterContext) > 0 {
		_ = json.Unmarshal(e.SubmitterContext, &submitterContext)
	}

	var embedding []float32
	if e.Embedding != nil {
		embedding = e.Embedding.Slice()
	}

	return &entity.Idea{
		Id:               e.Id,
		DiscussionId:     e.DiscussionId,
		Text:             e.Text,
		Embedding:        embedding,
		UserId:           e.UserId,
		SessionId:        e.SessionId,
		TopicId:          e.TopicId,
		SubmitterContext: submitterContext,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *IdeaMapper) ToModel(e *entity.Idea) *model.Idea {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var submitterContext datatypes.JSON
	if e.SubmitterContext != nil {
		raw, _ := json.Marshal(e.SubmitterContext)
		submitterContext = datatypes.JSON(raw)
	}

	// vector(768) columns reject empty literals; leave NULL until the
	// embedding exists
	var embedding *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		embedding = &v
	}

	return &model.Idea{
		Id:               e.Id,
		DiscussionId:     e.DiscussionId,
		Text:             e.Text,
		Embedding:        embedding,
		UserId:           e.UserId,
		SessionId:        e.SessionId,
		TopicId:          e.TopicId,
		SubmitterContext: submitterContext,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *IdeaMapper) ToEntities(ideas []*model.Idea) []*entity.Idea {
	entities := make([]*entity.Idea, len(ideas))
	for i, e := range ideas {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
