package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type NoteService interface {
	List(ctx context.Context, userID, q, category string) ([]model.Note, error)
	Get(ctx context.Context, userID string, id int64) (*model.Note, error)
	Create(ctx context.Context, userID string, n *model.Note) error
	Update(ctx context.Context, userID string, id int64, patch model.NotePatch) (*model.Note, error)
	TogglePin(ctx context.Context, userID string, id int64) (*model.Note, error)
	Delete(ctx context.Context, userID string, id int64) error
	Stats(ctx context.Context, userID string) (model.NoteStats, error)
}

type NoteHandler struct {
	svc    NoteService
	logger *zap.Logger
}

func NewNoteHandler(svc NoteService, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{svc: svc, logger: logger}
}

// ListNotes GET /notes?q=&category=, pinned first
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	notes, err := h.svc.List(c.Request.Context(), userID, c.Query("q"), c.Query("category"))
	if err != nil {
		respondError(c, h.logger, "ListNotes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	note, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "GetNote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.Note
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.Create(c.Request.Context(), userID, &in); err != nil {
		respondError(c, h.logger, "CreateNote", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": in})
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch model.NotePatch
	if !bindJSON(c, &patch) {
		return
	}

	note, err := h.svc.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateNote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) TogglePin(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	note, err := h.svc.TogglePin(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "TogglePin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteNote", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NoteHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "NoteStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
