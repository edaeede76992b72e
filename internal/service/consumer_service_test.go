package service

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"idea-clustering-be/internal/clustering"
	"idea-clustering-be/internal/dto"
	"idea-clustering-be/internal/entity"
	"idea-clustering-be/internal/repository/contract"
	"idea-clustering-be/internal/repository/specification"
	"idea-clustering-be/internal/repository/unitofwork"
	"idea-clustering-be/pkg/embedding"
	"idea-clustering-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore backs the fake repositories with plain maps so the worker's
// embed and assign paths run without a database.
type memStore struct {
	ideas  map[uuid.UUID]*entity.Idea
	topics map[uuid.UUID]*entity.Topic
}

func newMemStore() *memStore {
	return &memStore{
		ideas:  make(map[uuid.UUID]*entity.Idea),
		topics: make(map[uuid.UUID]*entity.Topic),
	}
}

type fakeIdeaRepo struct {
	store *memStore
}

func (r *fakeIdeaRepo) matches(idea *entity.Idea, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if idea.Id != sp.ID {
				return false
			}
		case specification.ByDiscussion:
			if idea.DiscussionId != sp.DiscussionId {
				return false
			}
		case specification.ByTopic:
			if idea.TopicId == nil || *idea.TopicId != sp.TopicId {
				return false
			}
		case specification.Assigned:
			if idea.TopicId == nil {
				return false
			}
		}
	}
	return true
}

func (r *fakeIdeaRepo) Create(_ context.Context, idea *entity.Idea) error {
	c := *idea
	r.store.ideas[idea.Id] = &c
	return nil
}

func (r *fakeIdeaRepo) Update(_ context.Context, idea *entity.Idea) error {
	c := *idea
	r.store.ideas[idea.Id] = &c
	return nil
}

func (r *fakeIdeaRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Idea, error) {
	for _, idea := range r.store.ideas {
		if r.matches(idea, specs) {
			c := *idea
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeIdeaRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Idea, error) {
	var out []*entity.Idea
	for _, idea := range r.store.ideas {
		if r.matches(idea, specs) {
			c := *idea
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Id.String() < out[j].Id.String()
	})
	return out, nil
}

func (r *fakeIdeaRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, idea := range r.store.ideas {
		if r.matches(idea, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeIdeaRepo) SetEmbedding(_ context.Context, ideaId uuid.UUID, emb []float32) error {
	idea, ok := r.store.ideas[ideaId]
	if !ok {
		return nil
	}
	idea.Embedding = append([]float32(nil), emb...)
	return nil
}

func (r *fakeIdeaRepo) AssignTopics(_ context.Context, assignments map[uuid.UUID][]uuid.UUID) error {
	for topicId, memberIds := range assignments {
		for _, id := range memberIds {
			if idea, ok := r.store.ideas[id]; ok {
				tid := topicId
				idea.TopicId = &tid
			}
		}
	}
	return nil
}

func (r *fakeIdeaRepo) SearchSimilarWithScore(_ context.Context, emb []float32, limit int, discussionId uuid.UUID, threshold float64) ([]*contract.ScoredIdea, error) {
	var out []*contract.ScoredIdea
	for _, idea := range r.store.ideas {
		if idea.DiscussionId != discussionId || !idea.HasEmbedding() {
			continue
		}
		sim := clustering.Cosine(emb, idea.Embedding)
		if sim >= threshold {
			c := *idea
			out = append(out, &contract.ScoredIdea{Idea: &c, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Idea.Id.String() < out[j].Idea.Id.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeIdeaRepo) TopicCentroid(_ context.Context, topicId uuid.UUID) ([]float32, error) {
	var sum []float32
	var n int
	for _, idea := range r.store.ideas {
		if idea.TopicId == nil || *idea.TopicId != topicId || !idea.HasEmbedding() {
			continue
		}
		if sum == nil {
			sum = make([]float32, len(idea.Embedding))
		}
		for i, v := range idea.Embedding {
			sum[i] += v
		}
		n++
	}
	if n == 0 {
		return nil, nil
	}
	for i := range sum {
		sum[i] /= float32(n)
	}
	return sum, nil
}

type fakeTopicRepo struct {
	store *memStore
}

func (r *fakeTopicRepo) matches(topic *entity.Topic, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if topic.Id != sp.ID {
				return false
			}
		case specification.ByDiscussion:
			if topic.DiscussionId != sp.DiscussionId {
				return false
			}
		case specification.TopLevelOnly:
			if topic.ParentTopicId != nil {
				return false
			}
		}
	}
	return true
}

func (r *fakeTopicRepo) Create(_ context.Context, topic *entity.Topic) error {
	c := *topic
	r.store.topics[topic.Id] = &c
	return nil
}

func (r *fakeTopicRepo) Update(_ context.Context, topic *entity.Topic) error {
	c := *topic
	r.store.topics[topic.Id] = &c
	return nil
}

func (r *fakeTopicRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.topics, id)
	return nil
}

func (r *fakeTopicRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Topic, error) {
	for _, topic := range r.store.topics {
		if r.matches(topic, specs) {
			c := *topic
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeTopicRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Topic, error) {
	var out []*entity.Topic
	for _, topic := range r.store.topics {
		if r.matches(topic, specs) {
			c := *topic
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeTopicRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, topic := range r.store.topics {
		if r.matches(topic, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTopicRepo) ListTopLevel(_ context.Context, discussionId uuid.UUID) ([]*entity.Topic, error) {
	var out []*entity.Topic
	for _, topic := range r.store.topics {
		if topic.DiscussionId == discussionId && topic.ParentTopicId == nil {
			c := *topic
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Id.String() < out[j].Id.String()
	})
	return out, nil
}

func (r *fakeTopicRepo) GetMembers(_ context.Context, topicId uuid.UUID) ([]*entity.Idea, error) {
	ideas := &fakeIdeaRepo{store: r.store}
	return ideas.FindAll(context.Background(), specification.ByTopic{TopicId: topicId})
}

func (r *fakeTopicRepo) ListRepresentatives(_ context.Context, discussionId uuid.UUID) ([]*contract.TopicRepresentative, error) {
	var topics []*entity.Topic
	for _, topic := range r.store.topics {
		if topic.DiscussionId == discussionId && topic.ParentTopicId == nil {
			topics = append(topics, topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if !topics[i].CreatedAt.Equal(topics[j].CreatedAt) {
			return topics[i].CreatedAt.Before(topics[j].CreatedAt)
		}
		return topics[i].Id.String() < topics[j].Id.String()
	})

	out := make([]*contract.TopicRepresentative, 0, len(topics))
	for _, topic := range topics {
		rep, ok := r.store.ideas[topic.RepresentativeIdeaId]
		if !ok {
			continue
		}
		out = append(out, &contract.TopicRepresentative{
			TopicId:              topic.Id,
			RepresentativeIdeaId: rep.Id,
			RepresentativeText:   rep.Text,
			Embedding:            rep.Embedding,
		})
	}
	return out, nil
}

func (r *fakeTopicRepo) DeleteByDiscussion(_ context.Context, discussionId uuid.UUID) error {
	for id, topic := range r.store.topics {
		if topic.DiscussionId == discussionId {
			delete(r.store.topics, id)
		}
	}
	return nil
}

type fakeUnitOfWork struct {
	store *memStore
}

func (u *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error               { return nil }
func (u *fakeUnitOfWork) Rollback() error             { return nil }

func (u *fakeUnitOfWork) IdeaRepository() contract.IdeaRepository {
	return &fakeIdeaRepo{store: u.store}
}

func (u *fakeUnitOfWork) TopicRepository() contract.TopicRepository {
	return &fakeTopicRepo{store: u.store}
}

type fakeUowFactory struct {
	store *memStore
}

func (f *fakeUowFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

type fakeEventPublisher struct {
	events []events.Event
}

func (f *fakeEventPublisher) Publish(_ context.Context, e events.Event) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventPublisher) byType(eventType string) []events.Event {
	var out []events.Event
	for _, e := range f.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeEmbedder returns the mapped vector per text and errs on anything
// unmapped, so one idea of a batch can be made to fail.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	v, ok := f.vectors[text]
	if !ok {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: v},
	}, nil
}

func newTestConsumer(store *memStore, provider embedding.EmbeddingProvider, pub EventPublisher) *consumerService {
	return &consumerService{
		uowFactory:        &fakeUowFactory{store: store},
		embeddingProvider: provider,
		locks:             clustering.NewDiscussionLocks(),
		clusterConfig: clustering.Config{
			Threshold:      clustering.NewLogThreshold(0.55, 0.03, 0.80),
			CandidateLimit: 64,
		},
		natsPublisher: pub,
		logger:        noopLogger{},
	}
}

func queuedMessage(t *testing.T, idea *entity.Idea) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.ClusterIdeaMessage{IdeaId: idea.Id, DiscussionId: idea.DiscussionId})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func isAcked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func isNacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

func axisVector(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func TestConsumerIsolatesEmbeddingFailure(t *testing.T) {
	store := newMemStore()
	discussionId := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	embedder := &fakeEmbedder{vectors: make(map[string][]float32), err: embedding.ErrInvalidInput}
	ideas := make([]*entity.Idea, 10)
	for i := range ideas {
		text := "idea-" + string(rune('0'+i))
		ideas[i] = &entity.Idea{
			Id:           uuid.New(),
			DiscussionId: discussionId,
			Text:         text,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}
		store.ideas[ideas[i].Id] = ideas[i]
		if i != 3 {
			embedder.vectors[text] = axisVector(12, i)
		}
	}
	// two submissions share a theme and must end up in one topic
	embedder.vectors["idea-5"] = axisVector(12, 1)

	pub := &fakeEventPublisher{}
	cs := newTestConsumer(store, embedder, pub)

	ctx := context.Background()
	for i, idea := range ideas {
		msg := queuedMessage(t, idea)
		cs.processMessage(ctx, msg)
		assert.True(t, isAcked(msg), "message %d should be acked", i)
		assert.False(t, isNacked(msg))
	}

	assigned := 0
	for _, idea := range ideas {
		stored := store.ideas[idea.Id]
		if idea.Text == "idea-3" {
			assert.Nil(t, stored.TopicId, "the unembeddable idea must stay unassigned")
			continue
		}
		require.NotNil(t, stored.TopicId, "%s should have been assigned", idea.Text)
		assigned++
	}
	assert.Equal(t, 9, assigned)

	// 9 assignments over 8 distinct directions: idea-5 joined idea-1's topic
	assert.Len(t, store.topics, 8)
	joined := store.topics[*store.ideas[ideas[5].Id].TopicId]
	assert.Equal(t, *store.ideas[ideas[1].Id].TopicId, joined.Id)
	assert.Equal(t, 2, joined.Count)

	procErrors := pub.byType(events.TypeProcessingError)
	require.Len(t, procErrors, 1, "exactly one failure event for the bad idea")
	assert.Equal(t, ideas[3].Id.String(), procErrors[0].Payload()["idea_id"])
	assert.Len(t, pub.byType(events.TypeClustersUpdated), 9)
}

func TestConsumerAcksRedeliveryOfAssignedIdea(t *testing.T) {
	store := newMemStore()
	discussionId := uuid.New()
	topicId := uuid.New()

	idea := &entity.Idea{
		Id:           uuid.New(),
		DiscussionId: discussionId,
		Text:         "already clustered",
		Embedding:    axisVector(4, 0),
		TopicId:      &topicId,
		CreatedAt:    time.Now(),
	}
	store.ideas[idea.Id] = idea

	embedder := &fakeEmbedder{vectors: make(map[string][]float32), err: embedding.ErrInvalidInput}
	pub := &fakeEventPublisher{}
	cs := newTestConsumer(store, embedder, pub)

	msg := queuedMessage(t, idea)
	cs.processMessage(context.Background(), msg)

	assert.True(t, isAcked(msg))
	assert.Zero(t, embedder.calls, "redelivery must not re-embed")
	assert.Empty(t, pub.events)
	assert.Equal(t, topicId, *store.ideas[idea.Id].TopicId)
}

func TestConsumerNacksOnTransientEmbedFailure(t *testing.T) {
	store := newMemStore()
	idea := &entity.Idea{
		Id:           uuid.New(),
		DiscussionId: uuid.New(),
		Text:         "backend is down",
		CreatedAt:    time.Now(),
	}
	store.ideas[idea.Id] = idea

	embedder := &fakeEmbedder{vectors: make(map[string][]float32), err: assert.AnError}
	pub := &fakeEventPublisher{}
	cs := newTestConsumer(store, embedder, pub)

	msg := queuedMessage(t, idea)
	cs.processMessage(context.Background(), msg)

	assert.True(t, isNacked(msg), "transient failures must be redelivered")
	assert.False(t, isAcked(msg))
	assert.Equal(t, embedMaxAttempts, embedder.calls)
	assert.Nil(t, store.ideas[idea.Id].TopicId)

	procErrors := pub.byType(events.TypeProcessingError)
	require.Len(t, procErrors, 1)
	assert.Equal(t, "embedding temporarily unavailable", procErrors[0].Payload()["error"])
}
