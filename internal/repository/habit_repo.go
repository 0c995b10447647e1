package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contractsmq "lifeboard/contracts/mq"
	"lifeboard/internal/model"
)

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{db: db, logger: logger}
}

const habitColumns = `id, user_id, name, description, color, frequency, target_days, created_at, updated_at`

func scanHabit(row pgx.Row) (*model.Habit, error) {
	var h model.Habit
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Description,
		&h.Color,
		&h.Frequency,
		&h.TargetDays,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HabitRepository) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	r.logger.Debug("Listing habits", zap.String("user_id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+habitColumns+`
		FROM habits
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

func (r *HabitRepository) GetHabit(ctx context.Context, userID string, id int64) (*model.Habit, error) {
	h, err := scanHabit(r.db.QueryRow(ctx, `
		SELECT `+habitColumns+` FROM habits WHERE id = $1 AND user_id = $2
	`, id, userID))
	return h, translate(err)
}

// CreateHabit inserts h and queues habit.created in the same transaction.
func (r *HabitRepository) CreateHabit(ctx context.Context, h *model.Habit) error {
	r.logger.Debug("Inserting habit",
		zap.String("user_id", h.UserID),
		zap.String("name", h.Name),
		zap.String("frequency", string(h.Frequency)),
	)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO habits (user_id, name, description, color, frequency, target_days)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`, h.UserID, h.Name, h.Description, h.Color, h.Frequency, h.TargetDays,
		).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
		if err != nil {
			return err
		}
		return emit(ctx, tx, "habit", h.ID, contractsmq.RoutingHabitCreated, h.UserID,
			contractsmq.HabitCreatedPayload{HabitID: h.ID, Name: h.Name, Frequency: string(h.Frequency)})
	})
	if err != nil {
		r.logger.Error("Failed to insert habit", zap.Error(err))
		return translate(err)
	}

	r.logger.Info("Habit inserted successfully",
		zap.Int64("id", h.ID),
		zap.String("user_id", h.UserID),
	)
	return nil
}

func (r *HabitRepository) UpdateHabit(ctx context.Context, h *model.Habit) error {
	err := r.db.QueryRow(ctx, `
		UPDATE habits
		SET name = $3, description = $4, color = $5, frequency = $6, target_days = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, h.ID, h.UserID, h.Name, h.Description, h.Color, h.Frequency, h.TargetDays).Scan(&h.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update habit", zap.Int64("id", h.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}

// DeleteHabit removes the habit and, through the foreign key, its entries. A missing habit is not an error.
func (r *HabitRepository) DeleteHabit(ctx context.Context, userID string, id int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var name string
		err := tx.QueryRow(ctx, `
			DELETE FROM habits WHERE id = $1 AND user_id = $2 RETURNING name
		`, id, userID).Scan(&name)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return emit(ctx, tx, "habit", id, contractsmq.RoutingHabitDeleted, userID,
			contractsmq.HabitDeletedPayload{HabitID: id, Name: name})
	})
	if err != nil {
		r.logger.Error("Failed to delete habit", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("delete habit %d: %w", id, err)
	}
	r.logger.Info("Habit deleted", zap.Int64("id", id), zap.String("user_id", userID))
	return nil
}
