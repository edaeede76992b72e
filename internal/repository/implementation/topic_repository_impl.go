package implementation

import (
	"context"
	"errors"

	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/mapper"
	"idea-clustering-be/internal/model"
	"idea-clustering-be/internal/repository/contract"
	"idea-clustering-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TopicRepositoryImpl struct {
	db         *gorm.DB
	mapper     *mapper.TopicMapper
	ideaMapper *mapper.IdeaMapper
}

func NewTopicRepository(db *gorm.DB) contract.TopicRepository {
	return &TopicRepositoryImpl{
		db:         db,
		mapper:     mapper.NewTopicMapper(),
		ideaMapper: mapper.NewIdeaMapper(),
	}
}

func (r *TopicRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TopicRepositoryImpl) Create(ctx context.Context, topic *entity.Topic) error {
	m := r.mapper.ToModel(topic)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*topic = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicRepositoryImpl) Update(ctx context.Context, topic *entity.Topic) error {
	m := r.mapper.ToModel(topic)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*topic = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Topic{}, id).Error
}

func (r *TopicRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error) {
	var m model.Topic
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TopicRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error) {
	var models []*model.Topic
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TopicRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Topic{}).Count(&count).Error
	return count, err
}

func (r *TopicRepositoryImpl) ListTopLevel(ctx context.Context, discussionId uuid.UUID) ([]*entity.Topic, error) {
	var models []*model.Topic
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByDiscussion{DiscussionId: discussionId},
		specification.TopLevelOnly{},
	)
	err := query.
		Order("count DESC, created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TopicRepositoryImpl) GetMembers(ctx context.Context, topicId uuid.UUID) ([]*entity.Idea, error) {
	var models []*model.Idea
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByTopic{TopicId: topicId},
		specification.SubmissionOrder{},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.ideaMapper.ToEntities(models), nil
}

func (r *TopicRepositoryImpl) ListRepresentatives(ctx context.Context, discussionId uuid.UUID) ([]*contract.TopicRepresentative, error) {
	type result struct {
		TopicId              uuid.UUID
		RepresentativeIdeaId uuid.UUID
		RepresentativeText   string
		Embedding            pgvector.Vector
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("topics").
		Select("topics.id as topic_id, ideas.id as representative_idea_id, ideas.text as representative_text, ideas.embedding").
		Joins("JOIN ideas ON ideas.id = topics.representative_idea_id").
		Where("topics.discussion_id = ?", discussionId).
		Where("topics.parent_topic_id IS NULL").
		Order("topics.created_at ASC, topics.id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	reps := make([]*contract.TopicRepresentative, len(results))
	for i, res := range results {
		reps[i] = &contract.TopicRepresentative{
			TopicId:              res.TopicId,
			RepresentativeIdeaId: res.RepresentativeIdeaId,
			RepresentativeText:   res.RepresentativeText,
			Embedding:            res.Embedding.Slice(),
		}
	}
	return reps, nil
}

func (r *TopicRepositoryImpl) DeleteByDiscussion(ctx context.Context, discussionId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("discussion_id = ?", discussionId).
		Delete(&model.Topic{}).Error
}
