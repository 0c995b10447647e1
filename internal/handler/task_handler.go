package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type TaskService interface {
	List(ctx context.Context, userID string, filter model.TaskFilter, q string) ([]model.Task, error)
	Get(ctx context.Context, userID string, id int64) (*model.Task, error)
	Create(ctx context.Context, userID string, t *model.Task) error
	Update(ctx context.Context, userID string, id int64, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, userID string, id int64) error
	Stats(ctx context.Context, userID string) (model.TaskStats, error)
}

type TaskHandler struct {
	svc    TaskService
	logger *zap.Logger
}

func NewTaskHandler(svc TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// ListTasks GET /tasks?filter=all|completed|pending&q=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter, err := model.ParseTaskFilter(c.Query("filter"))
	if err != nil {
		respondError(c, h.logger, "ListTasks", err)
		return
	}

	tasks, err := h.svc.List(c.Request.Context(), userID, filter, c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "ListTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.Task
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.Create(c.Request.Context(), userID, &in); err != nil {
		respondError(c, h.logger, "CreateTask", err)
		return
	}
	h.logger.Info("CreateTask: success", zap.String("user_id", userID), zap.Int64("task_id", in.ID))
	c.JSON(http.StatusCreated, gin.H{"task": in})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch model.TaskPatch
	if !bindJSON(c, &patch) {
		return
	}

	task, err := h.svc.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteTask", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "TaskStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
