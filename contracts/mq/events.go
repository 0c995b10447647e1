package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifeboard/pkg/trace"
)

// Routing keys on the "events" exchange.
const (
	RoutingHabitCreated        = "habit.created"
	RoutingHabitDeleted        = "habit.deleted"
	RoutingHabitEntryToggled   = "habit.entry.toggled"
	RoutingTaskCompleted       = "task.completed"
	RoutingTransactionRecorded = "finance.transaction.recorded"
)

// AllRoutingKeys is what the activity worker binds to.
var AllRoutingKeys = []string{
	RoutingHabitCreated,
	RoutingHabitDeleted,
	RoutingHabitEntryToggled,
	RoutingTaskCompleted,
	RoutingTransactionRecorded,
}

// Envelope wraps every event published through the outbox.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	TraceID    string          `json:"trace_id,omitempty"`
	UserID     string          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope stamps data with a fresh event id and the trace id carried by ctx.
func NewEnvelope(ctx context.Context, routingKey, userID string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}
	return Envelope{
		EventID:    uuid.NewString(),
		Type:       routingKey,
		TraceID:    trace.FromContext(ctx),
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// Decode unmarshals the envelope's data into out.
func (e Envelope) Decode(out any) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type HabitCreatedPayload struct {
	HabitID   int64  `json:"habit_id"`
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
}

type HabitDeletedPayload struct {
	HabitID int64  `json:"habit_id"`
	Name    string `json:"name"`
}

type HabitEntryToggledPayload struct {
	HabitID int64  `json:"habit_id"`
	EntryID *int64 `json:"entry_id,omitempty"`
	Date    string `json:"date"` // YYYY-MM-DD
	Action  string `json:"action"`
}

type TaskCompletedPayload struct {
	TaskID int64  `json:"task_id"`
	Text   string `json:"text"`
}

type TransactionRecordedPayload struct {
	TransactionID int64  `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	Type          string `json:"type"`
	AmountCents   int64  `json:"amount_cents"`
	Description   string `json:"description,omitempty"`
}
