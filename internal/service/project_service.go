package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ProjectStore interface {
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	GetProject(ctx context.Context, userID string, id int64) (*model.Project, error)
	CreateProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, userID string, id int64) error
}

type ProjectService struct {
	store  ProjectStore
	logger *zap.Logger
}

func NewProjectService(store ProjectStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{store: store, logger: logger}
}

// FilterProjects matches status exactly and q against name or description.
func FilterProjects(projects []model.Project, status *model.ProjectStatus, q string) []model.Project {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if status != nil && (p.Status == nil || *p.Status != *status) {
			continue
		}
		if q != "" && !containsFold(p.Name, q) && (p.Description == nil || !containsFold(*p.Description, q)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func ProjectStatsOf(projects []model.Project) model.ProjectStats {
	st := model.ProjectStats{Total: len(projects)}
	for _, p := range projects {
		if p.Status == nil {
			continue
		}
		switch *p.Status {
		case model.ProjectCompleted:
			st.Completed++
		case model.ProjectInProgress:
			st.InProgress++
		case model.ProjectOnHold:
			st.OnHold++
		}
	}
	return st
}

func (s *ProjectService) List(ctx context.Context, userID string, status *model.ProjectStatus, q string) ([]model.Project, error) {
	if status != nil && !status.Valid() {
		return nil, model.Invalid("status", "must be planning, in-progress, on-hold or completed")
	}
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FilterProjects(projects, status, q), nil
}

func (s *ProjectService) Get(ctx context.Context, userID string, id int64) (*model.Project, error) {
	return s.store.GetProject(ctx, userID, id)
}

func (s *ProjectService) Create(ctx context.Context, userID string, p *model.Project) error {
	p.UserID = userID
	p.Name = strings.TrimSpace(p.Name)
	if p.Status == nil {
		planning := model.ProjectPlanning
		p.Status = &planning
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.CreateProject(ctx, p)
}

func (s *ProjectService) Update(ctx context.Context, userID string, id int64, patch model.ProjectPatch) (*model.Project, error) {
	p, err := s.store.GetProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteProject(ctx, userID, id)
}

func (s *ProjectService) Stats(ctx context.Context, userID string) (model.ProjectStats, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return model.ProjectStats{}, err
	}
	return ProjectStatsOf(projects), nil
}
