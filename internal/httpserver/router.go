package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lifeboard/internal/handler"
	"lifeboard/pkg/authn"
	"lifeboard/pkg/otel"
	"lifeboard/pkg/rbac"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Habits    *handler.HabitHandler
	Tasks     *handler.TaskHandler
	Projects  *handler.ProjectHandler
	Notes     *handler.NoteHandler
	Finance   *handler.FinanceHandler
	Profile   *handler.ProfileHandler
	Dashboard *handler.DashboardHandler
	Admin     *handler.AdminHandler
}

type Options struct {
	Verifier *authn.Verifier
	DB       Pinger
	Limiter  *IPRateLimiter
	Logger   *zap.Logger
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otel.GinMiddleware())
	r.Use(RequestLogger(opts.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := opts.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Middleware())
	}
	api.Use(AuthMiddleware(opts.Verifier, opts.Logger))
	{
		api.GET("/habits", h.Habits.ListHabits)
		api.POST("/habits", h.Habits.CreateHabit)
		api.GET("/habits/stats", h.Habits.Stats)
		api.PATCH("/habits/:id", h.Habits.UpdateHabit)
		api.DELETE("/habits/:id", h.Habits.DeleteHabit)
		api.POST("/habits/:id/toggle", h.Habits.ToggleEntry)

		api.GET("/entries", h.Habits.ListEntries)
		api.POST("/entries", h.Habits.UpsertEntry)
		api.DELETE("/entries/:id", h.Habits.DeleteEntry)

		api.GET("/tasks", h.Tasks.ListTasks)
		api.POST("/tasks", h.Tasks.CreateTask)
		api.GET("/tasks/stats", h.Tasks.Stats)
		api.GET("/tasks/:id", h.Tasks.GetTask)
		api.PATCH("/tasks/:id", h.Tasks.UpdateTask)
		api.DELETE("/tasks/:id", h.Tasks.DeleteTask)

		api.GET("/projects", h.Projects.ListProjects)
		api.POST("/projects", h.Projects.CreateProject)
		api.GET("/projects/stats", h.Projects.Stats)
		api.GET("/projects/:id", h.Projects.GetProject)
		api.PATCH("/projects/:id", h.Projects.UpdateProject)
		api.DELETE("/projects/:id", h.Projects.DeleteProject)

		api.GET("/notes", h.Notes.ListNotes)
		api.POST("/notes", h.Notes.CreateNote)
		api.GET("/notes/stats", h.Notes.Stats)
		api.GET("/notes/:id", h.Notes.GetNote)
		api.PATCH("/notes/:id", h.Notes.UpdateNote)
		api.POST("/notes/:id/pin", h.Notes.TogglePin)
		api.DELETE("/notes/:id", h.Notes.DeleteNote)

		api.GET("/finance/accounts", h.Finance.ListAccounts)
		api.POST("/finance/accounts", h.Finance.CreateAccount)
		api.GET("/finance/accounts/:id", h.Finance.GetAccount)
		api.PATCH("/finance/accounts/:id", h.Finance.UpdateAccount)
		api.DELETE("/finance/accounts/:id", h.Finance.DeleteAccount)
		api.GET("/finance/transactions", h.Finance.ListTransactions)
		api.POST("/finance/transactions", h.Finance.CreateTransaction)
		api.PUT("/finance/transactions/:id", h.Finance.UpdateTransaction)
		api.DELETE("/finance/transactions/:id", h.Finance.DeleteTransaction)
		api.GET("/finance/summary", h.Finance.Summary)

		api.POST("/users/sync", h.Profile.Sync)
		api.GET("/users/me", h.Profile.Me)
		api.PATCH("/users/me", h.Profile.UpdateMe)

		api.GET("/dashboard", h.Dashboard.Dashboard)
		api.GET("/activity", h.Dashboard.Activity)

		admin := api.Group("/admin", RequirePermission(rbac.PermissionReplayOutbox))
		admin.POST("/outbox/replay", h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", h.Admin.ReplayFailedEvents)
	}

	return r
}

// Server wraps http.Server with the shutdown sequence used by cmd/api.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(addr string, h http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to grace.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
