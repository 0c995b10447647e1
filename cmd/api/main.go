package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lifeboard/config"
	dbmigrate "lifeboard/internal/db"
	"lifeboard/internal/handler"
	"lifeboard/internal/httpserver"
	"lifeboard/internal/repository"
	"lifeboard/internal/service"
	"lifeboard/pkg/authn"
	"lifeboard/pkg/db"
	"lifeboard/pkg/keylock"
	"lifeboard/pkg/logger"
	"lifeboard/pkg/otel"
	"lifeboard/pkg/outbox"
	redisclient "lifeboard/pkg/redis"
)

const (
	toggleLockTTL = 10 * time.Second
	shutdownGrace = 30 * time.Second
)

func main() {
	log := logger.NewLogger("lifeboard-api")
	defer log.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := otel.Init(otel.Config{
		ServiceName: "lifeboard-api",
		Endpoint:    cfg.Otel.Endpoint,
		Enabled:     cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Fatal("OpenTelemetry initialization failed", zap.Error(err))
	}
	defer shutdownOtel()

	// Init DB
	pool, err := db.NewConnection(ctx, cfg.DB, "lifeboard-api", log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()

	if err := dbmigrate.Migrate(ctx, pool, log); err != nil {
		log.Fatal("DB migration failed", zap.Error(err))
	}

	// Toggle lock: in-process queue, plus a cross-instance guard when redis is configured
	locks := keylock.Stack{keylock.NewLocal()}
	rdb, err := redisclient.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("Redis initialization failed", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
		locks = append(locks, keylock.NewRedis(rdb, "lifeboard:lock:", toggleLockTTL, log))
	}

	// Init Repositories
	habitRepo := repository.NewHabitRepository(pool, log)
	entryRepo := repository.NewEntryRepository(pool, log)
	taskRepo := repository.NewTaskRepository(pool, log)
	projectRepo := repository.NewProjectRepository(pool, log)
	noteRepo := repository.NewNoteRepository(pool, log)
	financeRepo := repository.NewFinanceRepository(pool, log)
	profileRepo := repository.NewProfileRepository(pool, log)
	activityRepo := repository.NewActivityRepository(pool, log)
	outboxRepo := outbox.NewRepository(pool)

	// Init Services
	habitSvc := service.NewHabitService(habitRepo, entryRepo, locks, cfg.Location(), log)
	taskSvc := service.NewTaskService(taskRepo, log)
	projectSvc := service.NewProjectService(projectRepo, log)
	noteSvc := service.NewNoteService(noteRepo, log)
	financeSvc := service.NewFinanceService(financeRepo, log)
	profileSvc := service.NewProfileService(profileRepo, log)
	activitySvc := service.NewActivityService(activityRepo)
	dashboardSvc := service.NewDashboardService(taskRepo, projectRepo, habitSvc, financeRepo, noteRepo)
	replaySvc := outbox.NewReplayService(outboxRepo, log)

	limiter := httpserver.NewIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	router := httpserver.NewRouter(httpserver.Handlers{
		Habits:    handler.NewHabitHandler(habitSvc, log),
		Tasks:     handler.NewTaskHandler(taskSvc, log),
		Projects:  handler.NewProjectHandler(projectSvc, log),
		Notes:     handler.NewNoteHandler(noteSvc, log),
		Finance:   handler.NewFinanceHandler(financeSvc, log),
		Profile:   handler.NewProfileHandler(profileSvc, log),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, activitySvc, log),
		Admin:     handler.NewAdminHandler(replaySvc, log),
	}, httpserver.Options{
		Verifier: authn.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience),
		DB:       pool,
		Limiter:  limiter,
		Logger:   log,
	})

	srv := httpserver.NewServer(cfg.Server.Port, router, log)
	if err := srv.Run(ctx, shutdownGrace); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
	log.Info("lifeboard api shutdown complete")
}
