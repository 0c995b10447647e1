package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ActivityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewActivityRepository(db *pgxpool.Pool, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

// RecordActivity reports false when the event id was already recorded.
func (r *ActivityRepository) RecordActivity(ctx context.Context, a *model.Activity) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO activity_log (event_id, user_id, kind, aggregate_id, summary, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`, a.EventID, a.UserID, a.Kind, a.AggregateID, a.Summary, a.OccurredAt)
	if err != nil {
		r.logger.Error("Failed to record activity", zap.String("event_id", a.EventID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ActivityRepository) ListActivity(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_id, user_id, kind, aggregate_id, summary, occurred_at, created_at
		FROM activity_log
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list activity", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.Kind, &a.AggregateID, &a.Summary, &a.OccurredAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
