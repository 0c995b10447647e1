package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
	"lifeboard/pkg/keylock"
	"lifeboard/pkg/outbox"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for the auth middleware.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != "" {
			c.Set(UserIDKey, id)
		}
		c.Next()
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.Invalid("name", "must not be empty"), http.StatusBadRequest},
		{fmt.Errorf("get habit: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrConflict, http.StatusConflict},
		{fmt.Errorf("lock: %w", keylock.ErrBusy), http.StatusConflict},
		{model.ErrForbidden, http.StatusForbidden},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

type habitStub struct {
	HabitService

	toggleUser string
	toggleID   int64
	toggleDate *civil.Date
	toggleRes  habit.Result
	toggleErr  error

	filter  model.EntryFilter
	entries []model.HabitEntry
	deleted int64
	listErr error
}

func (s *habitStub) Toggle(_ context.Context, userID string, habitID int64, date *civil.Date) (habit.Result, error) {
	s.toggleUser, s.toggleID, s.toggleDate = userID, habitID, date
	return s.toggleRes, s.toggleErr
}

func (s *habitStub) ListEntries(_ context.Context, f model.EntryFilter) ([]model.HabitEntry, error) {
	s.filter = f
	return s.entries, nil
}

func (s *habitStub) List(context.Context, string) ([]model.Habit, error) {
	return nil, s.listErr
}

func (s *habitStub) Delete(_ context.Context, _ string, id int64) error {
	s.deleted = id
	return nil
}

func habitRouter(stub *habitStub, user string) *gin.Engine {
	h := NewHabitHandler(stub, zap.NewNop())
	r := gin.New()
	r.Use(asUser(user))
	r.GET("/habits", h.ListHabits)
	r.DELETE("/habits/:id", h.DeleteHabit)
	r.POST("/habits/:id/toggle", h.ToggleEntry)
	r.GET("/entries", h.ListEntries)
	return r
}

func TestToggleEntry(t *testing.T) {
	day := civil.Date{Year: 2024, Month: 1, Day: 15}

	t.Run("explicit date creates", func(t *testing.T) {
		stub := &habitStub{toggleRes: habit.Result{
			Action: habit.ActionCreate,
			Entry:  &model.HabitEntry{ID: 9, HabitID: 3, Date: day, Completed: true},
		}}
		w := do(habitRouter(stub, "u1"), http.MethodPost, "/habits/3/toggle", `{"date":"2024-01-15"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", stub.toggleUser)
		assert.Equal(t, int64(3), stub.toggleID)
		require.NotNil(t, stub.toggleDate)
		assert.Equal(t, day, *stub.toggleDate)

		body := decode(t, w)
		assert.Equal(t, "created", body["action"])
		entry := body["entry"].(map[string]any)
		assert.Equal(t, "2024-01-15", entry["date"])
	})

	t.Run("empty body toggles today and delete omits entry", func(t *testing.T) {
		stub := &habitStub{toggleRes: habit.Result{Action: habit.ActionDelete}}
		w := do(habitRouter(stub, "u1"), http.MethodPost, "/habits/3/toggle", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, stub.toggleDate)
		body := decode(t, w)
		assert.Equal(t, "deleted", body["action"])
		assert.NotContains(t, body, "entry")
	})

	t.Run("bad date", func(t *testing.T) {
		stub := &habitStub{}
		w := do(habitRouter(stub, "u1"), http.MethodPost, "/habits/3/toggle", `{"date":"15/01/2024"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, stub.toggleUser)
	})

	t.Run("bad id", func(t *testing.T) {
		w := do(habitRouter(&habitStub{}, "u1"), http.MethodPost, "/habits/abc/toggle", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lock busy", func(t *testing.T) {
		stub := &habitStub{toggleErr: keylock.ErrBusy}
		w := do(habitRouter(stub, "u1"), http.MethodPost, "/habits/3/toggle", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown habit", func(t *testing.T) {
		stub := &habitStub{toggleErr: model.ErrNotFound}
		w := do(habitRouter(stub, "u1"), http.MethodPost, "/habits/3/toggle", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("validation carries field", func(t *testing.T) {
		stub := &habitStub{toggleErr: model.Invalid("date", "must be a calendar date")}
		w := do(habitRouter(stub, "u1"), http.MethodPost, "/habits/3/toggle", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "date", decode(t, w)["field"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := do(habitRouter(&habitStub{}, ""), http.MethodPost, "/habits/3/toggle", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListEntriesParsesFilter(t *testing.T) {
	stub := &habitStub{entries: []model.HabitEntry{{ID: 1}}}
	w := do(habitRouter(stub, "u1"), http.MethodGet, "/entries?habit_id=4&start_date=2024-01-01&end_date=2024-01-31", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", stub.filter.UserID)
	require.NotNil(t, stub.filter.HabitID)
	assert.Equal(t, int64(4), *stub.filter.HabitID)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 1}, *stub.filter.From)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 31}, *stub.filter.To)
	assert.Len(t, decode(t, w)["entries"], 1)

	w = do(habitRouter(stub, "u1"), http.MethodGet, "/entries?start_date=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteHabitAndServerError(t *testing.T) {
	stub := &habitStub{listErr: errors.New("pool closed")}
	r := habitRouter(stub, "u1")

	w := do(r, http.MethodDelete, "/habits/12", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(12), stub.deleted)

	w = do(r, http.MethodGet, "/habits", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode(t, w)["error"])
}

type taskStub struct {
	TaskService
	filter model.TaskFilter
	q      string
}

func (s *taskStub) List(_ context.Context, _ string, filter model.TaskFilter, q string) ([]model.Task, error) {
	s.filter, s.q = filter, q
	return []model.Task{}, nil
}

func TestListTasksFilter(t *testing.T) {
	stub := &taskStub{}
	h := NewTaskHandler(stub, zap.NewNop())
	r := gin.New()
	r.Use(asUser("u1"))
	r.GET("/tasks", h.ListTasks)

	w := do(r, http.MethodGet, "/tasks?filter=pending&q=Milk", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.TaskFilterPending, stub.filter)
	assert.Equal(t, "Milk", stub.q)

	w = do(r, http.MethodGet, "/tasks?filter=someday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type profileStub struct {
	ProfileService
	got model.UserProfile
}

func (s *profileStub) Sync(_ context.Context, userID string, in model.UserProfile) (*model.UserProfile, error) {
	s.got = in
	in.ID = userID
	return &in, nil
}

func TestProfileSyncUsesTokenEmail(t *testing.T) {
	stub := &profileStub{}
	h := NewProfileHandler(stub, zap.NewNop())
	r := gin.New()
	r.Use(asUser("sub-1"), func(c *gin.Context) { c.Set(EmailKey, "a@example.com"); c.Next() })
	r.POST("/users/sync", h.Sync)

	w := do(r, http.MethodPost, "/users/sync", `{"id":"spoofed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", stub.got.Email)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "sub-1", user["id"])
}

type replayStub struct {
	err error
	n   int
}

func (s *replayStub) ReplayEvent(context.Context, int64) error { return s.err }
func (s *replayStub) ReplayFailedEvents(_ context.Context, limit int) (int, error) {
	return min(s.n, limit), s.err
}

func TestAdminReplay(t *testing.T) {
	stub := &replayStub{n: 7}
	h := NewAdminHandler(stub, zap.NewNop())
	r := gin.New()
	r.POST("/replay", h.ReplayOutboxEvent)
	r.POST("/replay-failed", h.ReplayFailedEvents)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/replay", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/replay?id=5", "").Code)

	w := do(r, http.MethodPost, "/replay-failed?limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["success_count"])

	stub.err = outbox.ErrEventNotFound
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/replay?id=5", "").Code)
}
