package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
	"lifeboard/internal/service"
)

type HabitService interface {
	List(ctx context.Context, userID string) ([]model.Habit, error)
	Create(ctx context.Context, userID string, h *model.Habit) error
	Update(ctx context.Context, userID string, id int64, patch model.HabitPatch) (*model.Habit, error)
	Delete(ctx context.Context, userID string, id int64) error
	ListEntries(ctx context.Context, f model.EntryFilter) ([]model.HabitEntry, error)
	UpsertEntry(ctx context.Context, userID string, in model.EntryUpsert) (*model.HabitEntry, error)
	DeleteEntry(ctx context.Context, userID string, id int64) error
	Toggle(ctx context.Context, userID string, habitID int64, date *civil.Date) (habit.Result, error)
	Stats(ctx context.Context, userID string) (*service.HabitStats, error)
}

type HabitHandler struct {
	svc    HabitService
	logger *zap.Logger
}

func NewHabitHandler(svc HabitService, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{svc: svc, logger: logger}
}

func (h *HabitHandler) ListHabits(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	habits, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "ListHabits", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

func (h *HabitHandler) CreateHabit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.Habit
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.Create(c.Request.Context(), userID, &in); err != nil {
		respondError(c, h.logger, "CreateHabit", err)
		return
	}
	h.logger.Info("CreateHabit: success",
		zap.String("user_id", userID),
		zap.Int64("habit_id", in.ID),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusCreated, gin.H{"habit": in})
}

func (h *HabitHandler) UpdateHabit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch model.HabitPatch
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateHabit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": updated})
}

// DeleteHabit removes the habit and its entries; deleting a missing habit is not an error.
func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteHabit", err)
		return
	}
	h.logger.Info("DeleteHabit: success", zap.String("user_id", userID), zap.Int64("habit_id", id))
	c.Status(http.StatusNoContent)
}

// ListEntries GET /entries?habit_id=&start_date=&end_date=
func (h *HabitHandler) ListEntries(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	habitID, ok := optionalInt64(c, "habit_id")
	if !ok {
		return
	}
	from, ok := optionalDate(c, "start_date")
	if !ok {
		return
	}
	to, ok := optionalDate(c, "end_date")
	if !ok {
		return
	}

	entries, err := h.svc.ListEntries(c.Request.Context(), model.EntryFilter{
		UserID:  userID,
		HabitID: habitID,
		From:    from,
		To:      to,
	})
	if err != nil {
		respondError(c, h.logger, "ListEntries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *HabitHandler) UpsertEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.EntryUpsert
	if !bindJSON(c, &in) {
		return
	}

	entry, err := h.svc.UpsertEntry(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, h.logger, "UpsertEntry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (h *HabitHandler) DeleteEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteEntry(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteEntry", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type toggleRequest struct {
	Date *civil.Date `json:"date"`
}

// ToggleEntry POST /habits/:id/toggle {"date": "YYYY-MM-DD"}; an empty body toggles today.
func (h *HabitHandler) ToggleEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	habitID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.svc.Toggle(c.Request.Context(), userID, habitID, req.Date)
	if err != nil {
		respondError(c, h.logger, "ToggleEntry", err)
		return
	}
	h.logger.Info("ToggleEntry: success",
		zap.String("user_id", userID),
		zap.Int64("habit_id", habitID),
		zap.String("action", string(res.Action)),
	)
	c.JSON(http.StatusOK, res)
}

func (h *HabitHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "HabitStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
