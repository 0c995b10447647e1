package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

const projectColumns = `id, user_id, name, description, progress, status, priority, start_date, due_date, color, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var start, due *time.Time
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Progress,
		&p.Status,
		&p.Priority,
		&start,
		&due,
		&p.Color,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StartDate = nullDateOf(start)
	p.DueDate = nullDateOf(due)
	return &p, nil
}

func (r *ProjectRepository) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	r.logger.Debug("Listing projects", zap.String("user_id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) GetProject(ctx context.Context, userID string, id int64) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2
	`, id, userID))
	return p, translate(err)
}

func (r *ProjectRepository) CreateProject(ctx context.Context, p *model.Project) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (user_id, name, description, progress, status, priority, start_date, due_date, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, p.UserID, p.Name, p.Description, p.Progress, p.Status, p.Priority,
		nullDateArg(p.StartDate), nullDateArg(p.DueDate), p.Color,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return translate(err)
	}
	r.logger.Info("Project inserted successfully", zap.Int64("id", p.ID), zap.String("user_id", p.UserID))
	return nil
}

func (r *ProjectRepository) UpdateProject(ctx context.Context, p *model.Project) error {
	err := r.db.QueryRow(ctx, `
		UPDATE projects
		SET name = $3, description = $4, progress = $5, status = $6, priority = $7,
		    start_date = $8, due_date = $9, color = $10, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, p.ID, p.UserID, p.Name, p.Description, p.Progress, p.Status, p.Priority,
		nullDateArg(p.StartDate), nullDateArg(p.DueDate), p.Color,
	).Scan(&p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int64("id", p.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}

func (r *ProjectRepository) DeleteProject(ctx context.Context, userID string, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		r.logger.Error("Failed to delete project", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}
