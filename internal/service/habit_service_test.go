package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
	"lifeboard/pkg/keylock"
)

var fixedNow = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

func day(d int) civil.Date { return civil.Date{Year: 2024, Month: time.January, Day: d} }

func newHabitService(db *memDB) *HabitService {
	return NewHabitService(db, db, keylock.NewLocal(), time.UTC, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
}

func TestHabitServiceCreateValidates(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	err := svc.Create(ctx, "u1", &model.Habit{Name: "  "})
	assert.True(t, model.IsValidation(err))

	nine := 9
	err = svc.Create(ctx, "u1", &model.Habit{Name: "Read", Frequency: model.FrequencyCustom, TargetDays: &nine})
	assert.True(t, model.IsValidation(err))

	err = svc.Create(ctx, "u1", &model.Habit{Name: "Read", Frequency: "hourly"})
	assert.True(t, model.IsValidation(err))
	assert.Empty(t, db.habits)

	h := &model.Habit{Name: "Read"}
	require.NoError(t, svc.Create(ctx, "u1", h))
	assert.Equal(t, "u1", h.UserID)
	assert.Equal(t, model.FrequencyDaily, h.Frequency)
}

func TestHabitServiceUpdate(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	h := &model.Habit{Name: "Read"}
	require.NoError(t, svc.Create(ctx, "u1", h))

	name := "Read 20 pages"
	custom := model.FrequencyCustom
	three := 3
	got, err := svc.Update(ctx, "u1", h.ID, model.HabitPatch{Name: &name, Frequency: &custom, TargetDays: &three})
	require.NoError(t, err)
	assert.Equal(t, "Read 20 pages", got.Name)
	assert.Equal(t, 3, *got.TargetDays)

	empty := ""
	_, err = svc.Update(ctx, "u1", h.ID, model.HabitPatch{Name: &empty})
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, "Read 20 pages", db.habits[h.ID].Name)

	_, err = svc.Update(ctx, "u2", h.ID, model.HabitPatch{Name: &name})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestHabitServiceToggle(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	h := &model.Habit{Name: "Exercise"}
	require.NoError(t, svc.Create(ctx, "u1", h))

	res, err := svc.Toggle(ctx, "u1", h.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, habit.ActionCreate, res.Action)
	assert.Equal(t, day(15), res.Entry.Date)

	d := day(10)
	res, err = svc.Toggle(ctx, "u1", h.ID, &d)
	require.NoError(t, err)
	assert.Equal(t, day(10), res.Entry.Date)

	res, err = svc.Toggle(ctx, "u1", h.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, habit.ActionDelete, res.Action)

	_, err = svc.Toggle(ctx, "u2", h.ID, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.Toggle(ctx, "u1", 999, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestHabitServiceToggleFailureLeavesState(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	h := &model.Habit{Name: "Exercise"}
	require.NoError(t, svc.Create(ctx, "u1", h))

	db.failWith = errors.New("connection reset")
	_, err := svc.Toggle(ctx, "u1", h.ID, nil)
	assert.EqualError(t, err, "connection reset")
	db.failWith = nil
	assert.Empty(t, db.entries)
}

func TestHabitServiceEntries(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	h := &model.Habit{Name: "Exercise"}
	require.NoError(t, svc.Create(ctx, "u1", h))

	_, err := svc.UpsertEntry(ctx, "u1", model.EntryUpsert{HabitID: h.ID})
	assert.True(t, model.IsValidation(err))

	e, err := svc.UpsertEntry(ctx, "u1", model.EntryUpsert{HabitID: h.ID, Date: day(14)})
	require.NoError(t, err)
	assert.True(t, e.Completed)

	no := false
	note := "rest day"
	e2, err := svc.UpsertEntry(ctx, "u1", model.EntryUpsert{HabitID: h.ID, Date: day(14), Completed: &no, Notes: &note})
	require.NoError(t, err)
	assert.Equal(t, e.ID, e2.ID)
	assert.False(t, e2.Completed)

	// an incomplete entry toggles to completed rather than being removed
	d := day(14)
	res, err := svc.Toggle(ctx, "u1", h.ID, &d)
	require.NoError(t, err)
	assert.Equal(t, habit.ActionComplete, res.Action)

	from, to := day(14), day(13)
	_, err = svc.ListEntries(ctx, model.EntryFilter{UserID: "u1", From: &from, To: &to})
	assert.True(t, model.IsValidation(err))

	list, err := svc.ListEntries(ctx, model.EntryFilter{UserID: "u1", HabitID: &h.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteEntry(ctx, "u1", e.ID))
	require.NoError(t, svc.DeleteEntry(ctx, "u1", e.ID))
}

func TestHabitServiceDeleteCascades(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	h := &model.Habit{Name: "Exercise"}
	require.NoError(t, svc.Create(ctx, "u1", h))
	_, err := svc.Toggle(ctx, "u1", h.ID, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", h.ID))
	require.NoError(t, svc.Delete(ctx, "u1", h.ID))
	assert.Empty(t, db.entries)
}

func TestHabitServiceStats(t *testing.T) {
	db := newMemDB()
	svc := newHabitService(db)
	ctx := context.Background()

	ex := &model.Habit{Name: "Exercise"}
	rd := &model.Habit{Name: "Read"}
	require.NoError(t, svc.Create(ctx, "u1", ex))
	require.NoError(t, svc.Create(ctx, "u1", rd))

	for _, d := range []int{9, 10, 11, 12, 14, 15} {
		_, err := svc.UpsertEntry(ctx, "u1", model.EntryUpsert{HabitID: ex.ID, Date: day(d)})
		require.NoError(t, err)
	}
	no := false
	_, err := svc.UpsertEntry(ctx, "u1", model.EntryUpsert{HabitID: rd.ID, Date: day(13), Completed: &no})
	require.NoError(t, err)

	st, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, day(15), st.Date)
	assert.Equal(t, 2, st.Summary.Total)
	assert.Equal(t, 2, st.Summary.CurrentStreak)
	assert.Equal(t, 86, st.Summary.CompletionRate) // 6 of 7
	assert.Equal(t, 1, st.CompletedToday)
	require.Len(t, st.Habits, 2)
	assert.Equal(t, 100, st.Habits[0].CompletionRate)
	assert.Equal(t, 2, st.Habits[0].CurrentStreak)
	assert.Equal(t, 0, st.Habits[1].CompletionRate)
}
