package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lifeboard/config"
	mqcontracts "lifeboard/contracts/mq"
	dbmigrate "lifeboard/internal/db"
	"lifeboard/internal/mqhandler"
	"lifeboard/internal/repository"
	"lifeboard/internal/service"
	"lifeboard/pkg/db"
	"lifeboard/pkg/logger"
	"lifeboard/pkg/mq"
	"lifeboard/pkg/otel"
	"lifeboard/pkg/outbox"
	redisclient "lifeboard/pkg/redis"
	"lifeboard/pkg/util"
)

const (
	activityQueue   = "activity.q"
	dedupTTL        = 24 * time.Hour
	retryCounterTTL = time.Hour
	maxDeliveries   = 5
)

func main() {
	log := logger.NewLogger("lifeboard-worker")
	defer log.Sync()

	cfg := config.Load()
	log.Info("Starting worker service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := otel.Init(otel.Config{
		ServiceName: "lifeboard-worker",
		Endpoint:    cfg.Otel.Endpoint,
		Enabled:     cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Fatal("OpenTelemetry initialization failed", zap.Error(err))
	}
	defer shutdownOtel()

	// Init DB
	pool, err := db.NewConnection(ctx, cfg.DB, "lifeboard-worker", log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()
	if err := dbmigrate.Migrate(ctx, pool, log); err != nil {
		log.Fatal("DB migration failed", zap.Error(err))
	}

	rdb, err := redisclient.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("Redis initialization failed", zap.Error(err))
	}

	// Outbox → RabbitMQ
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	dispatcher := outbox.NewDispatcher(outbox.NewRepository(pool), publisher, log).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries)

	// RabbitMQ → activity_log
	activitySvc := service.NewActivityService(repository.NewActivityRepository(pool, log))
	var deduper mqhandler.Deduper
	if rdb != nil {
		defer rdb.Close()
		deduper = util.NewDeduper(rdb, dedupTTL, log)
	}
	activityHandler := mqhandler.NewActivityHandler(activitySvc, deduper, log)

	log.Info("Initializing activity consumer", zap.String("queue", activityQueue))
	consumer, err := mq.NewConsumer(cfg.MQ.URL, activityQueue, mqcontracts.AllRoutingKeys, log)
	if err != nil {
		log.Fatal("Failed to init activity consumer", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(activityHandler.Handle)
	if rdb != nil {
		consumer.WithRetries(util.NewRetryCounter(rdb, retryCounterTTL), maxDeliveries)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return consumer.StartConsuming(gctx)
	})

	log.Info("Worker is ready to process messages")
	if err := g.Wait(); err != nil {
		log.Error("Worker stopped with error", zap.Error(err))
	}
	log.Info("Worker shutdown complete")
}
