package service

import (
	"context"
	"strings"

	"idea-clustering-be/internal/pkg/logger"
	"idea-clustering-be/pkg/events"
	pkgNats "idea-clustering-be/pkg/nats"

	"github.com/google/uuid"
)

// RealtimeDelivery pushes an event to every subscriber of a discussion
// room. Implemented by the websocket hub.
type RealtimeDelivery interface {
	Publish(discussionID uuid.UUID, eventType string, payload interface{})
}

// NotifierService bridges the NATS event bus to websocket rooms. It runs
// one durable consumer per instance; the hub only delivers to rooms it
// holds locally, so multiple instances do not duplicate client messages.
type NotifierService struct {
	subscriber *pkgNats.Subscriber
	delivery   RealtimeDelivery
	logger     logger.ILogger
}

func NewNotifierService(sub *pkgNats.Subscriber, delivery RealtimeDelivery, log logger.ILogger) *NotifierService {
	return &NotifierService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotifierService) Start() {
	err := s.subscriber.Subscribe("events.>", "realtime-notifier", s.handleEvent)
	if err != nil {
		s.logger.Error("NotifierService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotifierService", "Notifier started, listening to events.>", nil)
}

func (s *NotifierService) handleEvent(_ context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	var wsType string
	switch typeCode {
	case events.TypeClustersUpdated:
		wsType = "clusters_updated"
	case events.TypeProcessingError:
		wsType = "processing_error"
	default:
		// not a client-facing event
		return nil
	}

	payload := event.Payload()
	discussionStr, _ := payload["discussion_id"].(string)
	discussionID, err := uuid.Parse(discussionStr)
	if err != nil {
		s.logger.Warn("NotifierService", "Event without a valid discussion_id, dropping", map[string]interface{}{
			"type": typeCode,
		})
		return nil
	}

	if s.delivery != nil {
		s.delivery.Publish(discussionID, wsType, payload)
	}
	return nil
}
