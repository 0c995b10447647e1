package habit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"lifeboard/internal/model"
	"lifeboard/pkg/metrics"
)

type Action string

const (
	ActionCreate   Action = "created"
	ActionComplete Action = "completed"
	ActionDelete   Action = "deleted"
)

// EntryStore is the persistence the toggle needs. FindEntry returns model.ErrNotFound when
// no entry exists for the key.
type EntryStore interface {
	FindEntry(ctx context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error)
	CreateEntry(ctx context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error)
	MarkEntryCompleted(ctx context.Context, userID string, entryID int64) (*model.HabitEntry, error)
	DeleteEntry(ctx context.Context, userID string, entryID int64) error
}

// Locker guards one (user, habit, date) key for the duration of a toggle.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Result is what a toggle did. Entry is nil after a delete.
type Result struct {
	Action Action            `json:"action"`
	Entry  *model.HabitEntry `json:"entry,omitempty"`
}

// Decide picks the next state for a key given its current entry (nil when absent).
//
//	absent               -> create completed entry
//	present, completed   -> delete entry
//	present, incomplete  -> mark completed
func Decide(existing *model.HabitEntry) Action {
	switch {
	case existing == nil:
		return ActionCreate
	case existing.Completed:
		return ActionDelete
	default:
		return ActionComplete
	}
}

// LockKey names the lock a toggle holds.
func LockKey(userID string, habitID int64, date civil.Date) string {
	return fmt.Sprintf("habit-entry:%s:%d:%s", userID, habitID, date)
}

type Toggler struct {
	store EntryStore
	locks Locker
	log   *zap.Logger
}

func NewToggler(store EntryStore, locks Locker, log *zap.Logger) *Toggler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Toggler{store: store, locks: locks, log: log}
}

// Toggle flips the entry for (habitID, date). Exactly one store mutation happens per call and
// store errors come back unchanged.
func (t *Toggler) Toggle(ctx context.Context, userID string, habitID int64, date civil.Date) (Result, error) {
	if userID == "" {
		return Result{}, model.Invalid("user_id", "is required")
	}
	if habitID <= 0 {
		return Result{}, model.Invalid("habit_id", "must be positive")
	}
	if !date.IsValid() {
		return Result{}, model.Invalid("date", "must be a calendar date")
	}

	key := LockKey(userID, habitID, date)
	waitStart := time.Now()
	unlock, err := t.locks.Lock(ctx, key)
	metrics.ObserveToggleLockWait(time.Since(waitStart))
	if err != nil {
		metrics.IncrementHabitToggle("none", "lock_failed")
		return Result{}, err
	}
	defer unlock()

	res, err := t.apply(ctx, userID, habitID, date)
	if err != nil {
		metrics.IncrementHabitToggle(string(res.Action), "error")
		t.log.Error("toggle failed",
			zap.String("user_id", userID),
			zap.Int64("habit_id", habitID),
			zap.Stringer("date", date),
			zap.String("action", string(res.Action)),
			zap.Error(err),
		)
		return Result{}, err
	}

	metrics.IncrementHabitToggle(string(res.Action), "ok")
	t.log.Info("habit entry toggled",
		zap.String("user_id", userID),
		zap.Int64("habit_id", habitID),
		zap.Stringer("date", date),
		zap.String("action", string(res.Action)),
	)
	return res, nil
}

func (t *Toggler) apply(ctx context.Context, userID string, habitID int64, date civil.Date) (Result, error) {
	existing, err := t.store.FindEntry(ctx, userID, habitID, date)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return Result{}, err
		}
		existing = nil
	}

	action := Decide(existing)
	switch action {
	case ActionCreate:
		e, err := t.store.CreateEntry(ctx, userID, habitID, date)
		if err != nil {
			return Result{Action: action}, err
		}
		return Result{Action: action, Entry: e}, nil

	case ActionComplete:
		e, err := t.store.MarkEntryCompleted(ctx, userID, existing.ID)
		if err != nil {
			return Result{Action: action}, err
		}
		return Result{Action: action, Entry: e}, nil

	default:
		// 已被删除视为成功
		if err := t.store.DeleteEntry(ctx, userID, existing.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return Result{Action: action}, err
		}
		return Result{Action: action}, nil
	}
}
