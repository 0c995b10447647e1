package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contractsmq "lifeboard/contracts/mq"
	"lifeboard/internal/model"
)

// EntryRepository keeps at most one habit_entries row per (habit_id, date).
type EntryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewEntryRepository(db *pgxpool.Pool, logger *zap.Logger) *EntryRepository {
	return &EntryRepository{db: db, logger: logger}
}

const entryColumns = `id, user_id, habit_id, date, completed, notes, created_at`

func scanEntry(row pgx.Row) (*model.HabitEntry, error) {
	var e model.HabitEntry
	var date time.Time
	err := row.Scan(&e.ID, &e.UserID, &e.HabitID, &date, &e.Completed, &e.Notes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Date = dateOf(date)
	return &e, nil
}

func (r *EntryRepository) ListEntries(ctx context.Context, f model.EntryFilter) ([]model.HabitEntry, error) {
	where := []string{"user_id = $1"}
	args := []any{f.UserID}
	if f.HabitID != nil {
		args = append(args, *f.HabitID)
		where = append(where, fmt.Sprintf("habit_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, dateArg(*f.From))
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, dateArg(*f.To))
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM habit_entries
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY date DESC, id DESC
	`, args...)
	if err != nil {
		r.logger.Error("Failed to list habit entries", zap.String("user_id", f.UserID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []model.HabitEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *EntryRepository) FindEntry(ctx context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM habit_entries
		WHERE user_id = $1 AND habit_id = $2 AND date = $3
	`, userID, habitID, dateArg(date)))
	return e, translate(err)
}

func (r *EntryRepository) GetEntry(ctx context.Context, userID string, id int64) (*model.HabitEntry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `
		SELECT `+entryColumns+` FROM habit_entries WHERE id = $1 AND user_id = $2
	`, id, userID))
	return e, translate(err)
}

func toggled(e *model.HabitEntry, action string) contractsmq.HabitEntryToggledPayload {
	p := contractsmq.HabitEntryToggledPayload{HabitID: e.HabitID, Date: e.Date.String(), Action: action}
	if action != "deleted" {
		id := e.ID
		p.EntryID = &id
	}
	return p
}

// CreateEntry inserts a completed entry. The habit must belong to userID.
func (r *EntryRepository) CreateEntry(ctx context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error) {
	var out *model.HabitEntry
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		e, err := scanEntry(tx.QueryRow(ctx, `
			INSERT INTO habit_entries (user_id, habit_id, date, completed)
			SELECT $1, h.id, $3, TRUE
			FROM habits h
			WHERE h.id = $2 AND h.user_id = $1
			RETURNING `+entryColumns, userID, habitID, dateArg(date)))
		if err != nil {
			return err
		}
		out = e
		return emit(ctx, tx, "habit_entry", e.ID, contractsmq.RoutingHabitEntryToggled, userID, toggled(e, "created"))
	})
	if err != nil {
		r.logger.Error("Failed to create habit entry",
			zap.String("user_id", userID),
			zap.Int64("habit_id", habitID),
			zap.Stringer("date", date),
			zap.Error(err),
		)
		return nil, translate(err)
	}
	return out, nil
}

func (r *EntryRepository) MarkEntryCompleted(ctx context.Context, userID string, entryID int64) (*model.HabitEntry, error) {
	var out *model.HabitEntry
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		e, err := scanEntry(tx.QueryRow(ctx, `
			UPDATE habit_entries SET completed = TRUE
			WHERE id = $1 AND user_id = $2
			RETURNING `+entryColumns, entryID, userID))
		if err != nil {
			return err
		}
		out = e
		return emit(ctx, tx, "habit_entry", e.ID, contractsmq.RoutingHabitEntryToggled, userID, toggled(e, "completed"))
	})
	if err != nil {
		r.logger.Error("Failed to complete habit entry", zap.Int64("entry_id", entryID), zap.Error(err))
		return nil, translate(err)
	}
	return out, nil
}

// DeleteEntry returns model.ErrNotFound when nothing was deleted; callers decide whether that matters.
func (r *EntryRepository) DeleteEntry(ctx context.Context, userID string, entryID int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		e, err := scanEntry(tx.QueryRow(ctx, `
			DELETE FROM habit_entries WHERE id = $1 AND user_id = $2
			RETURNING `+entryColumns, entryID, userID))
		if err != nil {
			return err
		}
		return emit(ctx, tx, "habit_entry", e.ID, contractsmq.RoutingHabitEntryToggled, userID, toggled(e, "deleted"))
	})
	if err != nil {
		err = translate(err)
		if !errors.Is(err, model.ErrNotFound) {
			r.logger.Error("Failed to delete habit entry", zap.Int64("entry_id", entryID), zap.Error(err))
		}
		return err
	}
	return nil
}

// UpsertEntry creates the day's entry or updates completed/notes on the existing one.
func (r *EntryRepository) UpsertEntry(ctx context.Context, userID string, in model.EntryUpsert) (*model.HabitEntry, error) {
	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}

	e, err := scanEntry(r.db.QueryRow(ctx, `
		INSERT INTO habit_entries (user_id, habit_id, date, completed, notes)
		SELECT $1, h.id, $3, $4, $5
		FROM habits h
		WHERE h.id = $2 AND h.user_id = $1
		ON CONFLICT (habit_id, date) DO UPDATE
		SET completed = CASE WHEN $6 THEN EXCLUDED.completed ELSE habit_entries.completed END,
		    notes = COALESCE(EXCLUDED.notes, habit_entries.notes)
		RETURNING `+entryColumns,
		userID, in.HabitID, dateArg(in.Date), completed, in.Notes, in.Completed != nil))
	if err != nil {
		r.logger.Error("Failed to upsert habit entry",
			zap.String("user_id", userID),
			zap.Int64("habit_id", in.HabitID),
			zap.Error(err),
		)
		return nil, translate(err)
	}
	r.logger.Info("Habit entry saved",
		zap.Int64("id", e.ID),
		zap.Int64("habit_id", e.HabitID),
		zap.Stringer("date", e.Date),
	)
	return e, nil
}
