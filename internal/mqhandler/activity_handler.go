package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "lifeboard/contracts/mq"
	"lifeboard/internal/model"
	"lifeboard/pkg/logger"
	"lifeboard/pkg/metrics"
	"lifeboard/pkg/util"
)

const dedupHandlerName = "activity"

type ActivityRecorder interface {
	Record(ctx context.Context, a *model.Activity) (bool, error)
}

// Deduper is satisfied by *util.Deduper.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, eventID string) bool
	Release(ctx context.Context, handler, eventID string)
}

// ActivityHandler turns published domain events into activity feed lines.
type ActivityHandler struct {
	recorder ActivityRecorder
	deduper  Deduper
	logger   *zap.Logger
}

// NewActivityHandler accepts a nil deduper; the activity_log unique event id
// still keeps writes idempotent.
func NewActivityHandler(recorder ActivityRecorder, deduper Deduper, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{recorder: recorder, deduper: deduper, logger: logger}
}

// Handle 是 mq.MessageHandler
func (h *ActivityHandler) Handle(ctx context.Context, routingKey string, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger).With(zap.String("routing_key", routingKey))

	var env mqcontracts.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.IncrementActivityRecorded(routingKey, "malformed")
		return fmt.Errorf("%w: decode envelope: %v", util.ErrPermanent, err)
	}
	if env.EventID == "" || env.UserID == "" {
		metrics.IncrementActivityRecorded(routingKey, "malformed")
		return fmt.Errorf("%w: envelope missing event_id or user_id", util.ErrPermanent)
	}
	log = log.With(zap.String("event_id", env.EventID), zap.String("user_id", env.UserID))

	activity, err := Describe(env)
	if err != nil {
		metrics.IncrementActivityRecorded(routingKey, "malformed")
		return fmt.Errorf("%w: %v", util.ErrPermanent, err)
	}
	if activity == nil {
		log.Warn("No activity mapping for event, acking")
		metrics.IncrementActivityRecorded(routingKey, "ignored")
		return nil
	}

	// Redis 去重
	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, dedupHandlerName, env.EventID) {
		metrics.IncrementActivityRecorded(activity.Kind, "duplicate")
		return nil
	}

	inserted, err := h.recorder.Record(ctx, activity)
	if err != nil {
		if h.deduper != nil {
			h.deduper.Release(ctx, dedupHandlerName, env.EventID)
		}
		retryable, kind := util.IsRetryableError(err)
		log.Error("Failed to record activity",
			zap.String("error_type", kind),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)
		metrics.IncrementActivityRecorded(activity.Kind, "error")
		return err
	}

	if !inserted {
		metrics.IncrementActivityRecorded(activity.Kind, "duplicate")
		log.Info("Activity already recorded")
		return nil
	}
	metrics.IncrementActivityRecorded(activity.Kind, "recorded")
	log.Info("Activity recorded", zap.String("summary", activity.Summary))
	return nil
}

// Describe maps an envelope to its feed line. Unknown event types yield nil.
func Describe(env mqcontracts.Envelope) (*model.Activity, error) {
	a := &model.Activity{
		EventID:    env.EventID,
		UserID:     env.UserID,
		Kind:       env.Type,
		OccurredAt: env.OccurredAt,
	}

	switch env.Type {
	case mqcontracts.RoutingHabitCreated:
		var p mqcontracts.HabitCreatedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		a.AggregateID = &p.HabitID
		a.Summary = fmt.Sprintf("Started tracking %q (%s)", p.Name, p.Frequency)

	case mqcontracts.RoutingHabitDeleted:
		var p mqcontracts.HabitDeletedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		a.AggregateID = &p.HabitID
		a.Summary = fmt.Sprintf("Stopped tracking %q", p.Name)

	case mqcontracts.RoutingHabitEntryToggled:
		var p mqcontracts.HabitEntryToggledPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		a.AggregateID = &p.HabitID
		switch p.Action {
		case "deleted":
			a.Summary = fmt.Sprintf("Unchecked habit for %s", p.Date)
		default:
			a.Summary = fmt.Sprintf("Checked off habit for %s", p.Date)
		}

	case mqcontracts.RoutingTaskCompleted:
		var p mqcontracts.TaskCompletedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		a.AggregateID = &p.TaskID
		a.Summary = fmt.Sprintf("Completed task %q", p.Text)

	case mqcontracts.RoutingTransactionRecorded:
		var p mqcontracts.TransactionRecordedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		a.AggregateID = &p.TransactionID
		a.Summary = fmt.Sprintf("Recorded %s of %s", p.Type, model.FormatCents(p.AmountCents))
		if p.Description != "" {
			a.Summary += ": " + p.Description
		}

	default:
		return nil, nil
	}
	return a, nil
}
