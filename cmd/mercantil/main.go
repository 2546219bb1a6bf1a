package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mercantil-erp/mercantil-erp/internal/app"
	"github.com/mercantil-erp/mercantil-erp/internal/finance"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/brands"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/categories"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/parties"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/products"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/units"
	"github.com/mercantil-erp/mercantil-erp/internal/notes"
	"github.com/mercantil-erp/mercantil-erp/internal/observability"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/cache"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/db"
	"github.com/mercantil-erp/mercantil-erp/jobs"
	"github.com/mercantil-erp/mercantil-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()

	partiesService := parties.NewService(parties.NewRepository(dbpool))
	partiesHandler := parties.NewHandler(logger, partiesService)

	productsService := products.NewService(products.NewRepository(dbpool))
	productsHandler := products.NewHandler(logger, productsService)

	unitsHandler := units.NewHandler(logger, units.NewService(units.NewRepository(dbpool)))
	brandsHandler := brands.NewHandler(logger, brands.NewService(brands.NewRepository(dbpool)))
	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(dbpool)))

	termsCache := paymentterms.NewCache(redisClient, cfg.PaymentTermsCacheTTL)
	termsService := paymentterms.NewService(paymentterms.NewRepository(dbpool), termsCache, logger)
	termsHandler := paymentterms.NewHandler(logger, termsService)

	notesRepo := notes.NewRepository(dbpool)
	financeService := finance.NewService(finance.NewRepository(dbpool), notesRepo, termsService, logger)
	financeHandler := finance.NewHandler(logger, financeService)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	scheduler := &jobs.NoteScheduler{Client: queueClient, Finance: financeService}

	notesService := notes.NewService(notesRepo, productsService, termsService, scheduler, metrics, logger)
	notesHandler := notes.NewHandler(logger, notesService)

	reportHandler := report.NewHandler(report.NewClient(cfg.GotenbergURL), notesService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		PartiesHandler:      partiesHandler,
		ProductsHandler:     productsHandler,
		UnitsHandler:        unitsHandler,
		BrandsHandler:       brandsHandler,
		CategoriesHandler:   categoriesHandler,
		PaymentTermsHandler: termsHandler,
		NotesHandler:        notesHandler,
		FinanceHandler:      financeHandler,
		JobHandler:          jobHandler,
		ReportHandler:       reportHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
