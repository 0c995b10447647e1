package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
)

type TaskStore interface {
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	GetTask(ctx context.Context, userID string, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	DeleteTask(ctx context.Context, userID string, id int64) error
}

type TaskService struct {
	store  TaskStore
	logger *zap.Logger
}

func NewTaskService(store TaskStore, logger *zap.Logger) *TaskService {
	return &TaskService{store: store, logger: logger}
}

// FilterTasks keeps tasks matching the completion filter and, when q is set, whose text or
// category contains q case-insensitively.
func FilterTasks(tasks []model.Task, filter model.TaskFilter, q string) []model.Task {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		switch filter {
		case model.TaskFilterCompleted:
			if !t.Completed {
				continue
			}
		case model.TaskFilterPending:
			if t.Completed {
				continue
			}
		}
		if q != "" && !containsFold(t.Text, q) && (t.Category == nil || !containsFold(*t.Category, q)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func containsFold(s, lowerQ string) bool {
	return strings.Contains(strings.ToLower(s), lowerQ)
}

func TaskStatsOf(tasks []model.Task) model.TaskStats {
	var st model.TaskStats
	st.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	st.CompletionRate = habit.Percent(st.Completed, st.Total)
	return st
}

func (s *TaskService) List(ctx context.Context, userID string, filter model.TaskFilter, q string) ([]model.Task, error) {
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FilterTasks(tasks, filter, q), nil
}

func (s *TaskService) Get(ctx context.Context, userID string, id int64) (*model.Task, error) {
	return s.store.GetTask(ctx, userID, id)
}

func (s *TaskService) Create(ctx context.Context, userID string, t *model.Task) error {
	t.UserID = userID
	t.Text = strings.TrimSpace(t.Text)
	if err := t.Validate(); err != nil {
		return err
	}
	return s.store.CreateTask(ctx, t)
}

func (s *TaskService) Update(ctx context.Context, userID string, id int64, patch model.TaskPatch) (*model.Task, error) {
	t, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteTask(ctx, userID, id)
}

func (s *TaskService) Stats(ctx context.Context, userID string) (model.TaskStats, error) {
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return model.TaskStats{}, err
	}
	return TaskStatsOf(tasks), nil
}
