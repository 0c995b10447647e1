package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ProjectService interface {
	List(ctx context.Context, userID string, status *model.ProjectStatus, q string) ([]model.Project, error)
	Get(ctx context.Context, userID string, id int64) (*model.Project, error)
	Create(ctx context.Context, userID string, p *model.Project) error
	Update(ctx context.Context, userID string, id int64, patch model.ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, userID string, id int64) error
	Stats(ctx context.Context, userID string) (model.ProjectStats, error)
}

type ProjectHandler struct {
	svc    ProjectService
	logger *zap.Logger
}

func NewProjectHandler(svc ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// ListProjects GET /projects?status=&q=
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var status *model.ProjectStatus
	if raw := c.Query("status"); raw != "" {
		s := model.ProjectStatus(raw)
		if !s.Valid() {
			respondError(c, h.logger, "ListProjects", model.Invalid("status", "must be planning, in-progress, on-hold or completed"))
			return
		}
		status = &s
	}

	projects, err := h.svc.List(c.Request.Context(), userID, status, c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "ListProjects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "GetProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.Project
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.Create(c.Request.Context(), userID, &in); err != nil {
		respondError(c, h.logger, "CreateProject", err)
		return
	}
	h.logger.Info("CreateProject: success", zap.String("user_id", userID), zap.Int64("project_id", in.ID))
	c.JSON(http.StatusCreated, gin.H{"project": in})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch model.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}

	project, err := h.svc.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteProject", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "ProjectStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
