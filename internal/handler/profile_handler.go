package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ProfileService interface {
	Sync(ctx context.Context, userID string, in model.UserProfile) (*model.UserProfile, error)
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Update(ctx context.Context, userID string, patch model.ProfilePatch) (*model.UserProfile, error)
}

type ProfileHandler struct {
	svc    ProfileService
	logger *zap.Logger
}

func NewProfileHandler(svc ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// Sync POST /users/sync upserts the caller's profile. The id always comes
// from the token; an id in the body is ignored.
func (h *ProfileHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.UserProfile
	if !bindJSON(c, &in) {
		return
	}
	if in.Email == "" {
		if email, ok := c.Get(EmailKey); ok {
			in.Email, _ = email.(string)
		}
	}

	profile, err := h.svc.Sync(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, h.logger, "SyncProfile", err)
		return
	}
	h.logger.Info("SyncProfile: success", zap.String("user_id", userID), zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "GetProfile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var patch model.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}

	profile, err := h.svc.Update(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateProfile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}
