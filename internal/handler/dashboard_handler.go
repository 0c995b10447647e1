package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type DashboardService interface {
	Build(ctx context.Context, userID string) (*model.Dashboard, error)
}

type ActivityService interface {
	List(ctx context.Context, userID string, limit int) ([]model.Activity, error)
}

type DashboardHandler struct {
	dashboard DashboardService
	activity  ActivityService
	logger    *zap.Logger
}

func NewDashboardHandler(dashboard DashboardService, activity ActivityService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, activity: activity, logger: logger}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	d, err := h.dashboard.Build(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "Dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Activity GET /activity?limit=; the service clamps the limit.
func (h *DashboardHandler) Activity(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	items, err := h.activity.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, "ListActivity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": items})
}
