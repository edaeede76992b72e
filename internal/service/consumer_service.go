package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"idea-clustering-be/internal/clustering"
	"idea-clustering-be/internal/dto"
	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/pkg/logger"
	"idea-clustering-be/internal/repository/contract"
	"idea-clustering-be/internal/repository/specification"
	"idea-clustering-be/internal/repository/unitofwork"
	"idea-clustering-be/pkg/embedding"
	"idea-clustering-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	embedMaxAttempts = 3
	embedRetryDelay  = 500 * time.Millisecond
)

// EventPublisher sends domain events to the bus. Satisfied by the NATS
// publisher; nil means notifications are disabled.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the streaming worker: it embeds each queued idea and
// assigns it to a topic under the discussion lock. Delivery is
// at-least-once, so every step tolerates replays.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	locks             *clustering.DiscussionLocks
	clusterConfig     clustering.Config
	natsPublisher     EventPublisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	locks *clustering.DiscussionLocks,
	clusterConfig clustering.Config,
	natsPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		locks:             locks,
		clusterConfig:     clusterConfig,
		natsPublisher:     natsPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ClusterIdeaMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal queue message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed messages would retry forever
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	idea, err := uow.IdeaRepository().FindOne(ctx, specification.ByID{ID: payload.IdeaId})
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load idea", map[string]interface{}{"idea_id": payload.IdeaId, "error": err.Error()})
		msg.Nack()
		return
	}
	if idea == nil {
		cs.logger.Warn("ConsumerService", "Idea not found, dropping message", map[string]interface{}{"idea_id": payload.IdeaId})
		msg.Ack()
		return
	}
	if idea.TopicId != nil {
		// redelivery of an already-assigned idea
		msg.Ack()
		return
	}

	vector := idea.Embedding
	if !idea.HasEmbedding() {
		vector, err = cs.embed(ctx, idea.Text)
		if err != nil {
			if errors.Is(err, embedding.ErrInvalidInput) {
				cs.publishProcessingError(ctx, idea, "idea text cannot be embedded")
				msg.Ack()
				return
			}
			cs.logger.Error("ConsumerService", "Embedding backend failed, message will be retried", map[string]interface{}{
				"idea_id": idea.Id,
				"error":   err.Error(),
			})
			cs.publishProcessingError(ctx, idea, "embedding temporarily unavailable")
			msg.Nack()
			return
		}
	}

	// Serialize per discussion: two ideas racing into the same discussion
	// must see each other's topics.
	unlock := cs.locks.Lock(idea.DiscussionId)
	defer unlock()

	if err := cs.assign(ctx, idea, vector); err != nil {
		cs.logger.Error("ConsumerService", "Failed to assign idea to a topic", map[string]interface{}{
			"idea_id": idea.Id,
			"error":   err.Error(),
		})
		cs.publishProcessingError(ctx, idea, "clustering failed")
		msg.Nack()
		return
	}

	cs.publishSnapshot(ctx, idea.DiscussionId)
	msg.Ack()
}

func (cs *consumerService) embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= embedMaxAttempts; attempt++ {
		res, err := cs.embeddingProvider.Generate(ctx, text, "CLUSTERING")
		if err == nil {
			return res.Embedding.Values, nil
		}
		if errors.Is(err, embedding.ErrInvalidInput) {
			return nil, err
		}
		lastErr = err
		if attempt < embedMaxAttempts {
			time.Sleep(time.Duration(attempt) * embedRetryDelay)
		}
	}
	return nil, lastErr
}

// assign runs the streaming step inside one transaction: store the
// embedding, compare against existing topic representatives and either
// join the best match or open a new singleton topic.
func (cs *consumerService) assign(ctx context.Context, idea *entity.Idea, vector []float32) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if !idea.HasEmbedding() {
		if err := uow.IdeaRepository().SetEmbedding(ctx, idea.Id, vector); err != nil {
			return err
		}
		// keep the in-memory entity consistent; later Update calls persist
		// the full row
		idea.Embedding = vector
	}

	assignedCount, err := uow.IdeaRepository().Count(ctx,
		specification.ByDiscussion{DiscussionId: idea.DiscussionId},
		specification.Assigned{},
	)
	if err != nil {
		return err
	}
	threshold := cs.clusterConfig.Threshold(int(assignedCount))

	reps, err := uow.TopicRepository().ListRepresentatives(ctx, idea.DiscussionId)
	if err != nil {
		return err
	}
	reps, err = cs.shortlist(ctx, uow, idea.DiscussionId, vector, reps)
	if err != nil {
		return err
	}

	candidates := make([]clustering.Candidate, 0, len(reps))
	for _, r := range reps {
		candidates = append(candidates, clustering.Candidate{TopicID: r.TopicId, Vector: r.Embedding})
	}

	best, similarity := clustering.BestCandidate(vector, candidates)
	if best >= 0 && similarity >= threshold {
		if err := cs.joinTopic(ctx, uow, idea, vector, reps[best]); err != nil {
			return err
		}
	} else {
		if err := cs.openTopic(ctx, uow, idea); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// shortlist narrows the representative set through the pgvector index
// when a discussion has grown past the candidate limit. Order is
// preserved so tie-breaking stays deterministic; if the vector search
// finds nothing assigned yet, the full set is kept.
func (cs *consumerService) shortlist(ctx context.Context, uow unitofwork.UnitOfWork, discussionId uuid.UUID, vector []float32, reps []*contract.TopicRepresentative) ([]*contract.TopicRepresentative, error) {
	limit := cs.clusterConfig.CandidateLimit
	if limit <= 0 || len(reps) <= limit {
		return reps, nil
	}

	hits, err := uow.IdeaRepository().SearchSimilarWithScore(ctx, vector, limit, discussionId, 0)
	if err != nil {
		return nil, err
	}

	nearTopics := make(map[uuid.UUID]struct{}, len(hits))
	for _, h := range hits {
		if h.Idea.TopicId != nil {
			nearTopics[*h.Idea.TopicId] = struct{}{}
		}
	}
	if len(nearTopics) == 0 {
		return reps, nil
	}

	filtered := make([]*contract.TopicRepresentative, 0, len(nearTopics))
	for _, r := range reps {
		if _, ok := nearTopics[r.TopicId]; ok {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return reps, nil
	}
	return filtered, nil
}

func (cs *consumerService) joinTopic(ctx context.Context, uow unitofwork.UnitOfWork, idea *entity.Idea, vector []float32, rep *contract.TopicRepresentative) error {
	topic, err := uow.TopicRepository().FindOne(ctx, specification.ByID{ID: rep.TopicId})
	if err != nil {
		return err
	}
	if topic == nil {
		return errors.New("candidate topic vanished during assignment")
	}

	topicId := topic.Id
	idea.TopicId = &topicId
	if err := uow.IdeaRepository().Update(ctx, idea); err != nil {
		return err
	}

	topic.Count++

	centroid, err := uow.IdeaRepository().TopicCentroid(ctx, topic.Id)
	if err != nil {
		return err
	}
	if clustering.ShouldPromote(vector, rep.Embedding, centroid) {
		topic.RepresentativeIdeaId = idea.Id
	}

	now := time.Now()
	topic.UpdatedAt = &now
	return uow.TopicRepository().Update(ctx, topic)
}

func (cs *consumerService) openTopic(ctx context.Context, uow unitofwork.UnitOfWork, idea *entity.Idea) error {
	topic := entity.Topic{
		Id:                   uuid.New(),
		DiscussionId:         idea.DiscussionId,
		RepresentativeIdeaId: idea.Id,
		Count:                1,
		CreatedAt:            time.Now(),
	}
	if err := uow.TopicRepository().Create(ctx, &topic); err != nil {
		return err
	}

	topicId := topic.Id
	idea.TopicId = &topicId
	return uow.IdeaRepository().Update(ctx, idea)
}

func (cs *consumerService) publishSnapshot(ctx context.Context, discussionId uuid.UUID) {
	if cs.natsPublisher == nil {
		return
	}

	snapshot, err := buildSnapshot(ctx, cs.uowFactory.NewUnitOfWork(ctx), discussionId)
	if err != nil {
		cs.logger.Warn("ConsumerService", "Failed to build cluster snapshot", map[string]interface{}{
			"discussion_id": discussionId,
			"error":         err.Error(),
		})
		return
	}

	event := events.NewClustersUpdated(discussionId, snapshot)
	if err := cs.natsPublisher.Publish(ctx, event); err != nil {
		// Notification is auxiliary; the assignment already committed.
		cs.logger.Warn("ConsumerService", "Failed to publish cluster snapshot", map[string]interface{}{
			"discussion_id": discussionId,
			"error":         err.Error(),
		})
	}
}

func (cs *consumerService) publishProcessingError(ctx context.Context, idea *entity.Idea, reason string) {
	if cs.natsPublisher == nil {
		return
	}
	event := events.NewProcessingError(idea.DiscussionId, idea.Id, reason)
	if err := cs.natsPublisher.Publish(ctx, event); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to publish processing error event", map[string]interface{}{
			"idea_id": idea.Id,
			"error":   err.Error(),
		})
	}
}
