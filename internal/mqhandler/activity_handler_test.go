package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "lifeboard/contracts/mq"
	"lifeboard/internal/model"
	"lifeboard/pkg/util"
)

type memRecorder struct {
	seen map[string]model.Activity
	err  error
}

func (m *memRecorder) Record(_ context.Context, a *model.Activity) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]model.Activity{}
	}
	if _, ok := m.seen[a.EventID]; ok {
		return false, nil
	}
	m.seen[a.EventID] = *a
	return true, nil
}

func envelope(t *testing.T, routingKey string, data any) json.RawMessage {
	t.Helper()
	env, err := mqcontracts.NewEnvelope(context.Background(), routingKey, "user-1", data)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func newDeduper(t *testing.T) *util.Deduper {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return util.NewDeduper(rdb, time.Hour, zap.NewNop())
}

func TestHandleRecordsOnce(t *testing.T) {
	rec := &memRecorder{}
	h := NewActivityHandler(rec, newDeduper(t), zap.NewNop())
	raw := envelope(t, mqcontracts.RoutingHabitCreated, mqcontracts.HabitCreatedPayload{
		HabitID: 7, Name: "Read", Frequency: "daily",
	})

	require.NoError(t, h.Handle(context.Background(), mqcontracts.RoutingHabitCreated, raw))
	require.NoError(t, h.Handle(context.Background(), mqcontracts.RoutingHabitCreated, raw))

	require.Len(t, rec.seen, 1)
	for _, a := range rec.seen {
		assert.Equal(t, "user-1", a.UserID)
		assert.Equal(t, mqcontracts.RoutingHabitCreated, a.Kind)
		assert.Equal(t, int64(7), *a.AggregateID)
		assert.Equal(t, `Started tracking "Read" (daily)`, a.Summary)
	}
}

func TestHandleWithoutDeduperReliesOnStore(t *testing.T) {
	rec := &memRecorder{}
	h := NewActivityHandler(rec, nil, zap.NewNop())
	raw := envelope(t, mqcontracts.RoutingTaskCompleted, mqcontracts.TaskCompletedPayload{TaskID: 2, Text: "Buy milk"})

	require.NoError(t, h.Handle(context.Background(), mqcontracts.RoutingTaskCompleted, raw))
	require.NoError(t, h.Handle(context.Background(), mqcontracts.RoutingTaskCompleted, raw))
	assert.Len(t, rec.seen, 1)
}

func TestHandleFailureReleasesDedup(t *testing.T) {
	rec := &memRecorder{err: errors.New("connection refused")}
	h := NewActivityHandler(rec, newDeduper(t), zap.NewNop())
	raw := envelope(t, mqcontracts.RoutingHabitDeleted, mqcontracts.HabitDeletedPayload{HabitID: 1, Name: "Run"})

	err := h.Handle(context.Background(), mqcontracts.RoutingHabitDeleted, raw)
	require.Error(t, err)

	// redelivery after the store recovers is processed
	rec.err = nil
	require.NoError(t, h.Handle(context.Background(), mqcontracts.RoutingHabitDeleted, raw))
	assert.Len(t, rec.seen, 1)
}

func TestHandleMalformedIsPermanent(t *testing.T) {
	h := NewActivityHandler(&memRecorder{}, nil, zap.NewNop())

	err := h.Handle(context.Background(), "habit.created", json.RawMessage(`{not json`))
	assert.ErrorIs(t, err, util.ErrPermanent)
	retryable, _ := util.IsRetryableError(err)
	assert.False(t, retryable)

	err = h.Handle(context.Background(), "habit.created", json.RawMessage(`{"type":"habit.created"}`))
	assert.ErrorIs(t, err, util.ErrPermanent)
}

func TestHandleUnknownTypeAcks(t *testing.T) {
	rec := &memRecorder{}
	h := NewActivityHandler(rec, nil, zap.NewNop())
	raw := envelope(t, "habit.archived", map[string]int{"habit_id": 1})

	assert.NoError(t, h.Handle(context.Background(), "habit.archived", raw))
	assert.Empty(t, rec.seen)
}

func TestDescribe(t *testing.T) {
	entryID := int64(4)
	cases := []struct {
		key  string
		data any
		want string
	}{
		{mqcontracts.RoutingHabitEntryToggled, mqcontracts.HabitEntryToggledPayload{HabitID: 1, EntryID: &entryID, Date: "2024-01-15", Action: "created"}, "Checked off habit for 2024-01-15"},
		{mqcontracts.RoutingHabitEntryToggled, mqcontracts.HabitEntryToggledPayload{HabitID: 1, Date: "2024-01-15", Action: "deleted"}, "Unchecked habit for 2024-01-15"},
		{mqcontracts.RoutingTransactionRecorded, mqcontracts.TransactionRecordedPayload{TransactionID: 3, Type: "expense", AmountCents: 1250, Description: "Lunch"}, "Recorded expense of 12.50: Lunch"},
	}
	for _, tc := range cases {
		env, err := mqcontracts.NewEnvelope(context.Background(), tc.key, "u", tc.data)
		require.NoError(t, err)
		a, err := Describe(env)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, tc.want, a.Summary)
	}
}
