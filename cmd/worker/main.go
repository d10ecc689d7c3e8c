package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/campus-os/campus-os/internal/app"
	"github.com/campus-os/campus-os/internal/auth"
	jobmetrics "github.com/campus-os/campus-os/internal/jobs"
	"github.com/campus-os/campus-os/internal/platform/db"
	"github.com/campus-os/campus-os/internal/shared"
	"github.com/campus-os/campus-os/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	authService := auth.NewService(auth.NewRepository(pool))
	idempotencyStore := shared.NewIdempotencyStore(pool)

	policyScan := jobs.NewPolicyIntegrityJob(pool, logger, metrics)
	sessionCleanup := jobs.NewSessionCleanupJob(authService, logger, metrics)
	keyCleanup := jobs.NewIdempotencyCleanupJob(idempotencyStore, logger, metrics)

	policyScanTask, err := jobs.NewPolicyIntegrityScanTask(jobs.PolicyIntegrityScanPayload{})
	if err != nil {
		logger.Error("build policy scan task", slog.Any("error", err))
		os.Exit(1)
	}
	sessionCleanupTask, err := jobs.NewSessionCleanupTask()
	if err != nil {
		logger.Error("build session cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	keyCleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{})
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPolicyIntegrityScan, Handler: policyScan.Handle},
			{Type: jobs.TaskSessionCleanup, Handler: sessionCleanup.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: keyCleanup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: policyScanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: sessionCleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 * * *", Task: keyCleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
