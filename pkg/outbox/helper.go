package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var errNoRoutingKey = errors.New("outbox: routing key is required")

// Enqueue marshals payload and stores it as a pending event for aggregateType/aggregateID.
// It must run inside the transaction that performs the mutation being announced.
func Enqueue(ctx context.Context, tx pgx.Tx, aggregateType string, aggregateID int64, routingKey string, payload any) (*Event, error) {
	if routingKey == "" {
		return nil, errNoRoutingKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}

	event := &Event{
		AggregateType: aggregateType,
		AggregateID:   &aggregateID,
		RoutingKey:    routingKey,
		Payload:       body,
		Status:        StatusPending,
	}
	if err := InsertEvent(ctx, tx, event); err != nil {
		return nil, err
	}
	return event, nil
}
