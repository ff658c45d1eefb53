package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grachmannico95/rex-docs-be/internal/eventbus"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

type HistoryService interface {
	// RequestSync queues a reconciliation run and returns the event ID.
	RequestSync(ctx context.Context, requestedBy, trigger string) (string, error)
}

type historyService struct {
	bus    eventbus.EventBus
	logger *logger.Logger
}

func NewHistoryService(bus eventbus.EventBus, log *logger.Logger) HistoryService {
	return &historyService{
		bus:    bus,
		logger: log,
	}
}

func (s *historyService) RequestSync(ctx context.Context, requestedBy, trigger string) (string, error) {
	now := time.Now().UTC()
	event := eventbus.Event{
		ID:   uuid.New().String(),
		Type: eventbus.EventTypeHistorySync,
		Payload: eventbus.HistorySyncEvent{
			RequestedBy: requestedBy,
			Trigger:     trigger,
			RequestedAt: now,
		},
		Timestamp: now,
	}

	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error(ctx, "Failed to queue history sync",
			"event_id", event.ID,
			"error", err,
		)
		return "", err
	}

	s.logger.Info(ctx, "History sync queued",
		"event_id", event.ID,
		"trigger", trigger,
	)
	return event.ID, nil
}
