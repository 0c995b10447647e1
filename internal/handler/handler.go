package handler

import (
	"errors"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
	"lifeboard/pkg/keylock"
	"lifeboard/pkg/logger"
)

// Context keys written by the auth middleware.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
	EmailKey  = "email"
)

// CurrentUser returns the token subject stored by the auth middleware.
func CurrentUser(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// requireUser aborts with 401 when the request carries no user.
func requireUser(c *gin.Context) (string, bool) {
	id, ok := CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
	}
	return id, ok
}

func parseID(c *gin.Context, param string) (int64, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

// optionalInt64 parses a query parameter; absent yields nil.
func optionalInt64(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &v, true
}

// optionalDate parses a YYYY-MM-DD query parameter; absent yields nil.
func optionalDate(c *gin.Context, name string) (*civil.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected YYYY-MM-DD"})
		return nil, false
	}
	return &d, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return false
	}
	return true
}

// StatusOf maps domain errors onto HTTP status codes.
func StatusOf(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict), errors.Is(err, keylock.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status. Server errors are logged and their
// details withheld from the client.
func respondError(c *gin.Context, log *zap.Logger, op string, err error) {
	status := StatusOf(err)
	l := logger.WithTrace(c.Request.Context(), log)
	if status >= http.StatusInternalServerError {
		l.Error(op+": failed", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	l.Warn(op+": rejected", zap.Int("status", status), zap.Error(err))
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
