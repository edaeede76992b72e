package service

import (
	"context"
	"encoding/json"
	"time"

	"idea-clustering-be/internal/dto"
	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/pkg/apperrors"
	"idea-clustering-be/internal/pkg/logger"
	"idea-clustering-be/internal/ratelimit"
	"idea-clustering-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IIdeaService interface {
	// Submit accepts one idea, enqueues it for embedding and assignment,
	// and returns immediately. Exactly one of userId/sessionId is set.
	Submit(ctx context.Context, discussionId uuid.UUID, userId, sessionId *uuid.UUID, request *dto.SubmitIdeaRequest) (*dto.IdeaResponse, error)
}

type ideaService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	limiter          ratelimit.Limiter
	logger           logger.ILogger
}

func NewIdeaService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	limiter ratelimit.Limiter,
	log logger.ILogger,
) IIdeaService {
	return &ideaService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		limiter:          limiter,
		logger:           log,
	}
}

func (s *ideaService) Submit(ctx context.Context, discussionId uuid.UUID, userId, sessionId *uuid.UUID, request *dto.SubmitIdeaRequest) (*dto.IdeaResponse, error) {
	submitterKey := submitterKey(userId, sessionId)
	if submitterKey == "" {
		return nil, apperrors.NewValidation("submitter identity is required")
	}

	allowed, retryAfter, err := s.limiter.Allow(ctx, submitterKey)
	if err != nil {
		// A broken limiter backend must not take ingestion down with it.
		s.logger.Warn("IdeaService", "Rate limiter unavailable, allowing submission", map[string]interface{}{"error": err.Error()})
	} else if !allowed {
		return nil, apperrors.NewRateLimit(retryAfter)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	idea := entity.Idea{
		Id:               uuid.New(),
		DiscussionId:     discussionId,
		Text:             request.Text,
		UserId:           userId,
		SessionId:        sessionId,
		SubmitterContext: request.SubmitterContext,
		CreatedAt:        time.Now(),
	}

	if err := uow.IdeaRepository().Create(ctx, &idea); err != nil {
		return nil, err
	}

	msg := dto.ClusterIdeaMessage{
		IdeaId:       idea.Id,
		DiscussionId: idea.DiscussionId,
	}
	msgJson, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		// The idea is persisted; regroup will pick it up even if the
		// queue publish failed. Surface the failure in logs only.
		s.logger.Error("IdeaService", "Failed to enqueue idea for clustering", map[string]interface{}{
			"idea_id": idea.Id,
			"error":   err.Error(),
		})
	}

	return &dto.IdeaResponse{
		Id:           idea.Id,
		DiscussionId: idea.DiscussionId,
		Text:         idea.Text,
		TopicId:      idea.TopicId,
		CreatedAt:    idea.CreatedAt,
	}, nil
}

func submitterKey(userId, sessionId *uuid.UUID) string {
	if userId != nil {
		return "user:" + userId.String()
	}
	if sessionId != nil {
		return "session:" + sessionId.String()
	}
	return ""
}
