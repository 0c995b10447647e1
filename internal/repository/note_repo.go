package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type NoteRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNoteRepository(db *pgxpool.Pool, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{db: db, logger: logger}
}

const noteColumns = `id, user_id, title, content, category, tags, is_pinned, color, created_at, updated_at`

func scanNote(row pgx.Row) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Category, &n.Tags, &n.IsPinned, &n.Color, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}

// ListNotes returns pinned notes first, then most recently updated.
func (r *NoteRepository) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	r.logger.Debug("Listing notes", zap.String("user_id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = $1
		ORDER BY is_pinned DESC, updated_at DESC, id DESC
	`, userID)
	if err != nil {
		r.logger.Error("Failed to list notes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) GetNote(ctx context.Context, userID string, id int64) (*model.Note, error) {
	n, err := scanNote(r.db.QueryRow(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2
	`, id, userID))
	return n, translate(err)
}

func (r *NoteRepository) CreateNote(ctx context.Context, n *model.Note) error {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO notes (user_id, title, content, category, tags, is_pinned, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, n.UserID, n.Title, n.Content, n.Category, n.Tags, n.IsPinned, n.Color,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert note", zap.Error(err))
		return translate(err)
	}
	r.logger.Info("Note inserted successfully", zap.Int64("id", n.ID), zap.String("user_id", n.UserID))
	return nil
}

func (r *NoteRepository) UpdateNote(ctx context.Context, n *model.Note) error {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	err := r.db.QueryRow(ctx, `
		UPDATE notes
		SET title = $3, content = $4, category = $5, tags = $6, is_pinned = $7, color = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, n.ID, n.UserID, n.Title, n.Content, n.Category, n.Tags, n.IsPinned, n.Color).Scan(&n.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update note", zap.Int64("id", n.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}

// TogglePin flips is_pinned atomically and returns the updated note.
func (r *NoteRepository) TogglePin(ctx context.Context, userID string, id int64) (*model.Note, error) {
	n, err := scanNote(r.db.QueryRow(ctx, `
		UPDATE notes SET is_pinned = NOT is_pinned, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+noteColumns, id, userID))
	if err != nil {
		return nil, translate(err)
	}
	return n, nil
}

func (r *NoteRepository) DeleteNote(ctx context.Context, userID string, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		r.logger.Error("Failed to delete note", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}
