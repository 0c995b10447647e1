package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contractsmq "lifeboard/contracts/mq"
	"lifeboard/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, user_id, text, completed, priority, category, due_date, created_at, updated_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var due *time.Time
	err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.Completed, &t.Priority, &t.Category, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.DueDate = nullDateOf(due)
	return &t, nil
}

func (r *TaskRepository) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	r.logger.Debug("Listing tasks", zap.String("user_id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) GetTask(ctx context.Context, userID string, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2
	`, id, userID))
	return t, translate(err)
}

func (r *TaskRepository) CreateTask(ctx context.Context, t *model.Task) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (user_id, text, completed, priority, category, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, t.UserID, t.Text, t.Completed, t.Priority, t.Category, nullDateArg(t.DueDate),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err))
		return translate(err)
	}
	r.logger.Info("Task inserted successfully", zap.Int64("id", t.ID), zap.String("user_id", t.UserID))
	return nil
}

// UpdateTask saves t and queues task.completed when it flips from pending to completed.
func (r *TaskRepository) UpdateTask(ctx context.Context, t *model.Task) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var wasCompleted bool
		err := tx.QueryRow(ctx, `
			SELECT completed FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE
		`, t.ID, t.UserID).Scan(&wasCompleted)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			UPDATE tasks
			SET text = $3, completed = $4, priority = $5, category = $6, due_date = $7, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING updated_at
		`, t.ID, t.UserID, t.Text, t.Completed, t.Priority, t.Category, nullDateArg(t.DueDate)).Scan(&t.UpdatedAt)
		if err != nil {
			return err
		}

		if t.Completed && !wasCompleted {
			return emit(ctx, tx, "task", t.ID, contractsmq.RoutingTaskCompleted, t.UserID,
				contractsmq.TaskCompletedPayload{TaskID: t.ID, Text: t.Text})
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int64("id", t.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}

func (r *TaskRepository) DeleteTask(ctx context.Context, userID string, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		r.logger.Error("Failed to delete task", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}
