package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-reportcard-api/api/swagger"
	"github.com/noah-isme/sma-reportcard-api/internal/handler"
	"github.com/noah-isme/sma-reportcard-api/internal/repository"
	"github.com/noah-isme/sma-reportcard-api/internal/service"
	"github.com/noah-isme/sma-reportcard-api/pkg/cache"
	"github.com/noah-isme/sma-reportcard-api/pkg/config"
	"github.com/noah-isme/sma-reportcard-api/pkg/database"
	"github.com/noah-isme/sma-reportcard-api/pkg/jobs"
	"github.com/noah-isme/sma-reportcard-api/pkg/logger"
	"github.com/noah-isme/sma-reportcard-api/pkg/storage"
)

// @title SMA Report Card API
// @version 1.0.0
// @description Report card rendering, marks dashboard and class batches.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.ReportCards.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	app, err := buildApp(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.shutdown()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type app struct {
	router   *gin.Engine
	queue    *jobs.Queue
	shutdown func()
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*app, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	schools := repository.NewSchoolRepository(db)
	students := repository.NewStudentRepository(db)
	exams := repository.NewExamRepository(db)
	marks := repository.NewMarksRepository(db)
	batches := repository.NewBatchRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.ReportCards.CacheTTL, logr, cfg.ReportCards.CacheEnabled && redisClient != nil)

	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	cards := service.NewReportCardService(schools, students, exams, marks, cacheSvc, metrics, validate, logr.Named("report_cards"), service.ReportCardServiceConfig{
		PassThreshold:   cfg.Grading.ReportCardPassThreshold,
		CacheTTL:        cfg.ReportCards.CacheTTL,
		PDFEnabled:      cfg.ReportCards.PDFEnabled,
		AssembleTimeout: cfg.ReportCards.AssembleTimeout,
	})
	templates := service.NewTemplateService(schools, cacheSvc, validate, logr.Named("templates"))
	dashboard := service.NewMarksDashboardService(students, exams, marks, cacheSvc, validate, logr.Named("marks_dashboard"), service.MarksDashboardConfig{
		UIPassThreshold: cfg.Grading.UIPassThreshold,
		Concurrency:     cfg.Dashboard.Concurrency,
		CacheTTL:        cfg.Dashboard.CacheTTL,
	})

	store, err := storage.NewFileStore(cfg.Batches.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSigner(cfg.Batches.SignedURLSecret, cfg.Batches.SignedURLTTL)
	downloadPrefix := cfg.APIPrefix + "/export"

	var queue *jobs.Queue
	batchCfg := service.BatchServiceConfig{
		Enabled:         cfg.Batches.Enabled,
		PDFEnabled:      cfg.ReportCards.PDFEnabled,
		DownloadPrefix:  downloadPrefix,
		Retention:       cfg.Batches.Retention,
		CleanupInterval: cfg.Batches.CleanupInterval,
	}
	if cfg.Batches.Enabled {
		worker := service.NewBatchWorker(batches, students, cards, store, signer, metrics, downloadPrefix, logr.Named("batch_worker"))
		queue = jobs.NewQueue("report_card_batches", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Batches.WorkerConcurrency,
			BufferSize:  64,
			MaxRetries:  cfg.Batches.WorkerRetries,
			RetryDelay:  5 * time.Second,
			OnExhausted: worker.MarkFailed,
			Logger:      logr,
		})
		queue.Start(ctx)
	}
	var dispatcher service.BatchDispatcher
	if queue != nil {
		dispatcher = queue
	}
	batchSvc := service.NewBatchService(batches, students, exams, dispatcher, store, signer, metrics, validate, logr.Named("batches"), batchCfg)
	batchSvc.RecoverPendingJobs(ctx)
	batchSvc.StartCleanup(ctx)

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routes{
		tokens:     tokens,
		metrics:    metrics,
		reportCard: handler.NewReportCardHandler(cards),
		templates:  handler.NewTemplateHandler(templates),
		marks:      handler.NewMarksHandler(dashboard),
		batches:    handler.NewBatchHandler(batchSvc),
		health:     handler.NewMetricsHandler(metrics, checks),
	})

	return &app{
		router: router,
		queue:  queue,
		shutdown: func() {
			if queue != nil {
				queue.Stop()
			}
		},
	}, nil
}
