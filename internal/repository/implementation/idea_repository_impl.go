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

type IdeaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IdeaMapper
}

func NewIdeaRepository(db *gorm.DB) contract.IdeaRepository {
	return &IdeaRepositoryImpl{
		db:     db,
		mapper: mapper.NewIdeaMapper(),
	}
}

func (r *IdeaRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IdeaRepositoryImpl) Create(ctx context.Context, idea *entity.Idea) error {
	m := r.mapper.ToModel(idea)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*idea = *r.mapper.ToEntity(m)
	return nil
}

func (r *IdeaRepositoryImpl) Update(ctx context.Context, idea *entity.Idea) error {
	m := r.mapper.ToModel(idea)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*idea = *r.mapper.ToEntity(m)
	return nil
}

func (r *IdeaRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Idea, error) {
	var m model.Idea
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *IdeaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Idea, error) {
	var models []*model.Idea
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *IdeaRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Idea{}).Count(&count).Error
	return count, err
}

func (r *IdeaRepositoryImpl) SetEmbedding(ctx context.Context, ideaId uuid.UUID, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.Idea{}).
		Where("id = ?", ideaId).
		Update("embedding", pgvector.NewVector(embedding)).Error
}

func (r *IdeaRepositoryImpl) AssignTopics(ctx context.Context, assignments map[uuid.UUID][]uuid.UUID) error {
	for topicId, ideaIds := range assignments {
		if len(ideaIds) == 0 {
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&model.Idea{}).
			Where("id IN ?", ideaIds).
			Update("topic_id", topicId).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *IdeaRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, discussionId uuid.UUID, threshold float64) ([]*contract.ScoredIdea, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) gives the similarity back.
	type result struct {
		model.Idea
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("ideas").
		Select("ideas.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("ideas.discussion_id = ?", discussionId).
		Where("ideas.embedding IS NOT NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC, ideas.id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredIdea, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredIdea{
			Idea:       r.mapper.ToEntity(&res.Idea),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *IdeaRepositoryImpl) TopicCentroid(ctx context.Context, topicId uuid.UUID) ([]float32, error) {
	var centroid pgvector.Vector
	row := r.db.WithContext(ctx).
		Raw("SELECT AVG(embedding) FROM ideas WHERE topic_id = ? AND embedding IS NOT NULL", topicId).
		Row()
	if err := row.Scan(&centroid); err != nil {
		return nil, err
	}
	return centroid.Slice(), nil
}
