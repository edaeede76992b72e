package service

import (
	"context"
	"testing"
	"time"

	"idea-clustering-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type capturedPublish struct {
	discussionID uuid.UUID
	eventType    string
	payload      interface{}
}

type fakeDelivery struct {
	published []capturedPublish
}

func (f *fakeDelivery) Publish(discussionID uuid.UUID, eventType string, payload interface{}) {
	f.published = append(f.published, capturedPublish{discussionID, eventType, payload})
}

func TestNotifierRoutesClusterUpdatesToRoom(t *testing.T) {
	delivery := &fakeDelivery{}
	svc := NewNotifierService(nil, delivery, noopLogger{})

	discussionID := uuid.New()
	event := events.BaseEvent{
		Type: "events." + events.TypeClustersUpdated,
		Data: map[string]interface{}{
			"discussion_id": discussionID.String(),
			"clusters":      []interface{}{},
		},
		OccurredAt: time.Now(),
	}

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, delivery.published, 1)
	assert.Equal(t, discussionID, delivery.published[0].discussionID)
	assert.Equal(t, "clusters_updated", delivery.published[0].eventType)
}

func TestNotifierRoutesProcessingErrors(t *testing.T) {
	delivery := &fakeDelivery{}
	svc := NewNotifierService(nil, delivery, noopLogger{})

	discussionID := uuid.New()
	event := events.NewProcessingError(discussionID, uuid.New(), "embedding temporarily unavailable")

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, delivery.published, 1)
	assert.Equal(t, "processing_error", delivery.published[0].eventType)
}

func TestNotifierIgnoresUnknownEvents(t *testing.T) {
	delivery := &fakeDelivery{}
	svc := NewNotifierService(nil, delivery, noopLogger{})

	event := events.BaseEvent{
		Type:       "events.SOMETHING_ELSE",
		Data:       map[string]interface{}{"discussion_id": uuid.New().String()},
		OccurredAt: time.Now(),
	}

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, delivery.published)
}

func TestNotifierDropsEventsWithoutDiscussionId(t *testing.T) {
	delivery := &fakeDelivery{}
	svc := NewNotifierService(nil, delivery, noopLogger{})

	event := events.BaseEvent{
		Type:       "events." + events.TypeClustersUpdated,
		Data:       map[string]interface{}{},
		OccurredAt: time.Now(),
	}

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, delivery.published)
}
