package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReplayStore is the part of Repository used to requeue failed events.
type ReplayStore interface {
	GetEventByID(ctx context.Context, eventID int64) (*Event, error)
	ReplayEvent(ctx context.Context, eventID int64) error
	GetFailedEvents(ctx context.Context, limit int) ([]*Event, error)
}

// ReplayService 把失败事件重置为 pending，由 Dispatcher 重新发布
type ReplayService struct {
	store  ReplayStore
	logger *zap.Logger
}

func NewReplayService(store ReplayStore, logger *zap.Logger) *ReplayService {
	return &ReplayService{store: store, logger: logger}
}

// ReplayEvent 重放指定的事件；仍在 pending 的事件不做处理
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.store.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status == StatusPending {
		s.logger.Debug("Outbox event already pending", zap.Int64("event_id", eventID))
		return nil
	}
	if err := s.store.ReplayEvent(ctx, eventID); err != nil {
		return err
	}
	s.logger.Info("Outbox event requeued",
		zap.Int64("event_id", eventID),
		zap.String("routing_key", event.RoutingKey),
		zap.String("previous_status", event.Status),
	)
	return nil
}

// ReplayFailedEvents 重放最多 limit 个失败的事件，返回成功数量
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.store.GetFailedEvents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get failed events: %w", err)
	}

	successCount := 0
	for _, event := range events {
		if err := s.store.ReplayEvent(ctx, event.ID); err != nil {
			s.logger.Error("Failed to requeue outbox event",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		successCount++
	}

	s.logger.Info("Outbox failed events requeued",
		zap.Int("requested", len(events)),
		zap.Int("requeued", successCount),
	)
	return successCount, nil
}
