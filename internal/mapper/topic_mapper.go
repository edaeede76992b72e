package mapper

import (
	"time"

	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/model"
)

type TopicMapper struct{}

func NewTopicMapper() *TopicMapper {
	return &TopicMapper{}
}

func (m *TopicMapper) ToEntity(e *model.Topic) *entity.Topic {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.Topic{
		Id:                   e.Id,
		DiscussionId:         e.DiscussionId,
		ParentTopicId:        e.ParentTopicId,
		RepresentativeIdeaId: e.RepresentativeIdeaId,
		Count:                e.Count,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *TopicMapper) ToModel(e *entity.Topic) *model.Topic {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Topic{
		Id:                   e.Id,
		DiscussionId:         e.DiscussionId,
		ParentTopicId:        e.ParentTopicId,
		RepresentativeIdeaId: e.RepresentativeIdeaId,
		Count:                e.Count,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *TopicMapper) ToEntities(topics []*model.Topic) []*entity.Topic {
	entities := make([]*entity.Topic, len(topics))
	for i, e := range topics {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
