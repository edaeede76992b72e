package service

import (
	"context"
	"time"

	"idea-clustering-be/internal/clustering"
	"idea-clustering-be/internal/dto"
	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/pkg/apperrors"
	"idea-clustering-be/internal/pkg/logger"
	"idea-clustering-be/internal/repository/memory"
	"idea-clustering-be/internal/repository/specification"
	"idea-clustering-be/internal/repository/unitofwork"
	"idea-clustering-be/pkg/events"

	"github.com/google/uuid"
)

type ITopicService interface {
	// ListClusters returns the full current snapshot of a discussion's
	// top-level clusters, largest first.
	ListClusters(ctx context.Context, discussionId uuid.UUID) ([]dto.TopicResponse, error)

	// Drilldown re-clusters one topic's members as an independent set and
	// returns the derived sub-clusters. Nothing is persisted.
	Drilldown(ctx context.Context, request *dto.DrilldownRequest) ([]dto.TopicResponse, error)

	// Regroup recomputes the whole discussion's clustering from scratch
	// and atomically replaces the stored topics.
	Regroup(ctx context.Context, discussionId uuid.UUID) ([]dto.TopicResponse, error)
}

type topicService struct {
	uowFactory     unitofwork.RepositoryFactory
	drilldownCache *memory.DrilldownCache
	locks          *clustering.DiscussionLocks
	clusterConfig  clustering.Config
	natsPublisher  EventPublisher
	logger         logger.ILogger
}

func NewTopicService(
	uowFactory unitofwork.RepositoryFactory,
	drilldownCache *memory.DrilldownCache,
	locks *clustering.DiscussionLocks,
	clusterConfig clustering.Config,
	natsPublisher EventPublisher,
	log logger.ILogger,
) ITopicService {
	return &topicService{
		uowFactory:     uowFactory,
		drilldownCache: drilldownCache,
		locks:          locks,
		clusterConfig:  clusterConfig,
		natsPublisher:  natsPublisher,
		logger:         log,
	}
}

func (s *topicService) ListClusters(ctx context.Context, discussionId uuid.UUID) ([]dto.TopicResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return buildSnapshot(ctx, uow, discussionId)
}

// buildSnapshot assembles the client-facing cluster list: top-level topics
// ordered by size descending, members in submission order. Shared by the
// read endpoint, the streaming worker and regroup so every consumer sees
// the same shape.
func buildSnapshot(ctx context.Context, uow unitofwork.UnitOfWork, discussionId uuid.UUID) ([]dto.TopicResponse, error) {
	topics, err := uow.TopicRepository().ListTopLevel(ctx, discussionId)
	if err != nil {
		return nil, err
	}

	out := make([]dto.TopicResponse, 0, len(topics))
	for _, topic := range topics {
		members, err := uow.TopicRepository().GetMembers(ctx, topic.Id)
		if err != nil {
			return nil, err
		}

		resp := dto.TopicResponse{
			Id:           topic.Id,
			DiscussionId: topic.DiscussionId,
			Count:        topic.Count,
			Ideas:        make([]dto.IdeaResponse, 0, len(members)),
		}
		for _, m := range members {
			if m.Id == topic.RepresentativeIdeaId {
				resp.RepresentativeText = m.Text
			}
			resp.Ideas = append(resp.Ideas, dto.IdeaResponse{
				Id:           m.Id,
				DiscussionId: m.DiscussionId,
				Text:         m.Text,
				TopicId:      m.TopicId,
				CreatedAt:    m.CreatedAt,
			})
		}
		out = append(out, resp)
	}

	return out, nil
}

func (s *topicService) Drilldown(ctx context.Context, request *dto.DrilldownRequest) ([]dto.TopicResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	topic, err := uow.TopicRepository().FindOne(ctx, specification.ByID{ID: request.TopicId})
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperrors.NewNotFound("topic not found")
	}

	members, err := uow.TopicRepository().GetMembers(ctx, topic.Id)
	if err != nil {
		return nil, err
	}

	// The member count versions the cache between regroups, where topic
	// membership only ever grows. Regroup itself invalidates the topic's
	// entries, since it can swap members at an unchanged count.
	if cached, ok := s.drilldownCache.Get(topic.Id, len(members)); ok {
		return cached, nil
	}

	items := make([]clustering.Item, 0, len(members))
	for _, m := range members {
		items = append(items, clustering.Item{
			ID:        m.Id,
			Vector:    m.Embedding,
			CreatedAt: m.CreatedAt,
		})
	}

	// Members are treated as a fresh universe: the adaptive threshold
	// restarts from zero, so a cohesive topic still splits into finer
	// sub-themes.
	result := clustering.Partition(items, s.clusterConfig)
	if err := clustering.ValidateGroups(result.Groups); err != nil {
		return nil, err
	}

	byId := make(map[uuid.UUID]*entity.Idea, len(members))
	for _, m := range members {
		byId[m.Id] = m
	}

	parentId := topic.Id
	out := make([]dto.TopicResponse, 0, len(result.Groups))
	for _, g := range result.Groups {
		// Derived sub-clusters are never persisted; the representative
		// idea id doubles as a stable view id.
		resp := dto.TopicResponse{
			Id:            g.RepresentativeID,
			DiscussionId:  topic.DiscussionId,
			ParentTopicId: &parentId,
			Count:         len(g.MemberIDs),
			Ideas:         make([]dto.IdeaResponse, 0, len(g.MemberIDs)),
		}
		for _, id := range g.MemberIDs {
			m := byId[id]
			if m.Id == g.RepresentativeID {
				resp.RepresentativeText = m.Text
			}
			topicId := topic.Id
			resp.Ideas = append(resp.Ideas, dto.IdeaResponse{
				Id:           m.Id,
				DiscussionId: m.DiscussionId,
				Text:         m.Text,
				TopicId:      &topicId,
				CreatedAt:    m.CreatedAt,
			})
		}
		out = append(out, resp)
	}

	s.drilldownCache.Save(topic.Id, len(members), out)
	return out, nil
}

func (s *topicService) Regroup(ctx context.Context, discussionId uuid.UUID) ([]dto.TopicResponse, error) {
	unlock := s.locks.Lock(discussionId)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	ideas, err := uow.IdeaRepository().FindAll(ctx,
		specification.ByDiscussion{DiscussionId: discussionId},
		specification.SubmissionOrder{},
	)
	if err != nil {
		return nil, err
	}

	prevTopics, err := uow.TopicRepository().ListTopLevel(ctx, discussionId)
	if err != nil {
		return nil, err
	}
	prev := make([]clustering.PrevTopic, 0, len(prevTopics))
	for _, t := range prevTopics {
		members, err := uow.TopicRepository().GetMembers(ctx, t.Id)
		if err != nil {
			return nil, err
		}
		memberIds := make([]uuid.UUID, 0, len(members))
		for _, m := range members {
			memberIds = append(memberIds, m.Id)
		}
		prev = append(prev, clustering.PrevTopic{ID: t.Id, MemberIDs: memberIds})
	}

	items := make([]clustering.Item, 0, len(ideas))
	for _, idea := range ideas {
		items = append(items, clustering.Item{
			ID:        idea.Id,
			Vector:    idea.Embedding,
			CreatedAt: idea.CreatedAt,
		})
	}

	result := clustering.Partition(items, s.clusterConfig)
	if err := clustering.ValidateGroups(result.Groups); err != nil {
		return nil, err
	}

	// Reuse previous topic ids where membership overlaps, so a regroup
	// over an unchanged discussion does not churn client-visible ids.
	matched := clustering.MatchPrevious(result.Groups, prev)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.TopicRepository().DeleteByDiscussion(ctx, discussionId); err != nil {
		return nil, err
	}

	assignments := make(map[uuid.UUID][]uuid.UUID, len(result.Groups))
	now := time.Now()
	for i, g := range result.Groups {
		topicId := matched[i]
		if topicId == uuid.Nil {
			topicId = uuid.New()
		}
		topic := entity.Topic{
			Id:                   topicId,
			DiscussionId:         discussionId,
			RepresentativeIdeaId: g.RepresentativeID,
			Count:                len(g.MemberIDs),
			CreatedAt:            now,
		}
		if err := uow.TopicRepository().Create(ctx, &topic); err != nil {
			return nil, err
		}
		assignments[topicId] = g.MemberIDs
	}

	if err := uow.IdeaRepository().AssignTopics(ctx, assignments); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Matched topics keep their id but may have swapped members at the
	// same count, so drop their cached drill-down views explicitly.
	for _, t := range prevTopics {
		s.drilldownCache.Invalidate(t.Id)
	}

	snapshot, err := buildSnapshot(ctx, s.uowFactory.NewUnitOfWork(ctx), discussionId)
	if err != nil {
		return nil, err
	}

	if s.natsPublisher != nil {
		event := events.NewClustersUpdated(discussionId, snapshot)
		if err := s.natsPublisher.Publish(ctx, event); err != nil {
			// Notification is auxiliary; the regroup itself committed.
			s.logger.Warn("TopicService", "Failed to publish cluster snapshot after regroup", map[string]interface{}{
				"discussion_id": discussionId,
				"error":         err.Error(),
			})
		}
	}

	s.logger.Info("TopicService", "Discussion regrouped", map[string]interface{}{
		"discussion_id": discussionId,
		"topics":        len(result.Groups),
		"skipped":       len(result.Skipped),
	})

	return snapshot, nil
}
