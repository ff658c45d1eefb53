package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/history"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

// HistorySyncer runs one reconciliation pass.
type HistorySyncer interface {
	Run(ctx context.Context) (*history.Summary, error)
}

type HistorySyncConsumer struct {
	syncer      HistorySyncer
	logger      *logger.Logger
	workerCount int
}

func NewHistorySyncConsumer(syncer HistorySyncer, log *logger.Logger, workerCount int) *HistorySyncConsumer {
	if workerCount < 1 {
		workerCount = 1
	}
	return &HistorySyncConsumer{
		syncer:      syncer,
		logger:      log,
		workerCount: workerCount,
	}
}

func (hc *HistorySyncConsumer) Consume(ctx context.Context, event Event) error {
	payload, ok := event.Payload.(HistorySyncEvent)
	if !ok {
		hc.logger.Error(ctx, "Invalid payload type for history sync event",
			"event_id", event.ID,
		)
		return fmt.Errorf("invalid payload type")
	}

	if payload.RequestedBy != "" {
		ctx = logger.WithUserID(ctx, payload.RequestedBy)
	}

	summary, err := hc.syncer.Run(ctx)
	if errors.Is(err, domain.ErrSyncInProgress) {
		// The running pass covers this request.
		hc.logger.Info(ctx, "History sync already running, request dropped",
			"event_id", event.ID,
			"trigger", payload.Trigger,
		)
		return nil
	}
	if err != nil {
		hc.logger.Error(ctx, "History sync failed",
			"event_id", event.ID,
			"trigger", payload.Trigger,
			"error", err,
		)
		return err
	}

	hc.logger.Debug(ctx, "History sync event processed",
		"event_id", event.ID,
		"synced", summary.Synced,
		"failed", summary.Failed,
	)
	return nil
}

func (hc *HistorySyncConsumer) GetWorkerCount() int {
	return hc.workerCount
}
