package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
	"lifeboard/pkg/circuitbreaker"
)

func TestToggleHabitSendsDateAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/habits/3/toggle", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-01-15", body["date"])

		_ = json.NewEncoder(w).Encode(habit.Result{
			Action: habit.ActionCreate,
			Entry:  &model.HabitEntry{ID: 1, HabitID: 3, Date: civil.Date{Year: 2024, Month: 1, Day: 15}, Completed: true},
		})
	}))
	defer srv.Close()

	day := civil.Date{Year: 2024, Month: 1, Day: 15}
	res, err := New(srv.URL, "tok").ToggleHabit(context.Background(), 3, &day)
	require.NoError(t, err)
	assert.Equal(t, habit.ActionCreate, res.Action)
	assert.Equal(t, day, res.Entry.Date)
}

func TestListTasksQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending", r.URL.Query().Get("filter"))
		assert.Equal(t, "milk", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"tasks":[{"id":1,"text":"Buy milk"}]}`))
	}))
	defer srv.Close()

	tasks, err := New(srv.URL, "").ListTasks(context.Background(), model.TaskFilterPending, "milk")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
}

func TestAPIErrorDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	cb := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, Timeout: time.Minute, IsFailure: isServerFailure})
	c := New(srv.URL, "", WithBreaker(cb))

	for i := 0; i < 3; i++ {
		_, err := c.ListHabits(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "not found", apiErr.Message)
	}
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Minute, IsFailure: isServerFailure})
	c := New(srv.URL, "", WithBreaker(cb))

	_, _ = c.Dashboard(context.Background())
	_, _ = c.Dashboard(context.Background())
	_, err := c.Dashboard(context.Background())

	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.EqualValues(t, 2, calls.Load())
}
