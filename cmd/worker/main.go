package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/mercantil-erp/mercantil-erp/internal/app"
	"github.com/mercantil-erp/mercantil-erp/internal/finance"
	jobmetrics "github.com/mercantil-erp/mercantil-erp/internal/jobs"
	"github.com/mercantil-erp/mercantil-erp/internal/notes"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/cache"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/db"
	"github.com/mercantil-erp/mercantil-erp/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	termsCache := paymentterms.NewCache(redisClient, cfg.PaymentTermsCacheTTL)
	termsService := paymentterms.NewService(paymentterms.NewRepository(pool), termsCache, logger)

	notesRepo := notes.NewRepository(pool)
	financeService := finance.NewService(finance.NewRepository(pool), notesRepo, termsService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Finance:   financeService,
		Metrics:   jobmetrics.NewMetrics(nil),
		Cron: []jobs.CronRegistration{
			{Spec: "0 6 * * *", Task: jobs.NewOverdueScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
