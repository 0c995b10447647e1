package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/handler"
	"lifeboard/pkg/authn"
	"lifeboard/pkg/metrics"
	"lifeboard/pkg/rbac"
	"lifeboard/pkg/trace"
)

const (
	traceHeader   = "X-Trace-ID"
	requestHeader = "X-Request-ID"
)

// RequestLogger 为每个请求分配 trace id，并记录访问日志和耗时指标
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		traceID := trace.FromHeaders(c.GetHeader(traceHeader), c.GetHeader(requestHeader))
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(traceHeader, traceID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(status), latency)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", traceID),
		}
		if userID, ok := handler.CurrentUser(c); ok {
			fields = append(fields, zap.String("user_id", userID))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP Request", fields...)
			return
		}
		logger.Info("HTTP Request", fields...)
	}
}

// AuthMiddleware verifies the bearer token and stores its subject, role and
// email in the gin context.
func AuthMiddleware(verifier *authn.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := authn.ExtractToken(c.Request)
		if token == "" {
			metrics.IncrementAuthRejection("missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := verifier.ParseToken(token)
		if err != nil {
			metrics.IncrementAuthRejection("invalid")
			logger.Warn("Rejected bearer token",
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(handler.UserIDKey, claims.Subject)
		c.Set(handler.RoleKey, rbac.NormalizeRole(claims.Role))
		c.Set(handler.EmailKey, claims.Email)

		c.Next()
	}
}

// RequirePermission 要求当前用户的角色具有指定权限
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := handler.CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		role := c.GetString(handler.RoleKey)
		if err := rbac.CheckPermission(userID, role, permission); err != nil {
			metrics.IncrementAuthRejection("forbidden")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}

		c.Next()
	}
}
