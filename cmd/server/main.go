package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appsync "github.com/shopmirror/backend/internal/application/sync"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/infrastructure/config"
	"github.com/shopmirror/backend/internal/infrastructure/logger"
	"github.com/shopmirror/backend/internal/infrastructure/persistence"
	"github.com/shopmirror/backend/internal/infrastructure/queue"
	"github.com/shopmirror/backend/internal/infrastructure/scheduler"
	"github.com/shopmirror/backend/internal/infrastructure/shopify"
	"github.com/shopmirror/backend/internal/infrastructure/telemetry"
	"github.com/shopmirror/backend/internal/interfaces/http/handler"
	"github.com/shopmirror/backend/internal/interfaces/http/middleware"
	"github.com/shopmirror/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ShopMirror backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Tracing.Enabled,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		SamplingRatio:     cfg.Tracing.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Tracing.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Database
	gormLog := logger.NewDatabaseLogger(log, cfg.Log.Level)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterGormTracing(db.DB, tracerProvider.IsEnabled(), log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	stateRepo := persistence.NewGormSyncStateRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	customerRepo := persistence.NewGormMirrorCustomerRepository(db.DB)
	productRepo := persistence.NewGormMirrorProductRepository(db.DB)
	orderRepo := persistence.NewGormMirrorOrderRepository(db.DB)

	// Job queue
	jobQueue, err := queue.NewRedisQueue(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Platform client
	platformClient, err := shopify.NewClient(&shopify.Config{
		APIVersion:     shopify.DefaultAPIVersion,
		TimeoutSeconds: int(cfg.Sync.RequestTimeout / time.Second),
	})
	if err != nil {
		log.Fatal("Failed to create platform client", zap.Error(err))
	}

	// Sync orchestration
	lockManager := appsync.NewLockManager(stateRepo, appsync.LockManagerConfig{
		LockTTL:                cfg.Sync.LockTTL,
		MaxConsecutiveFailures: cfg.Sync.MaxConsecutiveFailures,
	}, log)

	customerWorker := appsync.NewCustomerSyncWorker(
		lockManager, stateRepo, tenantRepo, customerRepo, platformClient,
		appsync.WorkerConfig{PageSize: cfg.Sync.CustomerPageSize, RequestTimeout: cfg.Sync.RequestTimeout},
		log,
	)
	productWorker := appsync.NewProductSyncWorker(
		lockManager, stateRepo, tenantRepo, productRepo, platformClient,
		appsync.WorkerConfig{PageSize: cfg.Sync.ProductPageSize, RequestTimeout: cfg.Sync.RequestTimeout},
		log,
	)
	orderWorker := appsync.NewOrderSyncWorker(
		lockManager, stateRepo, tenantRepo, orderRepo, customerRepo, platformClient,
		appsync.WorkerConfig{PageSize: cfg.Sync.OrderPageSize, RequestTimeout: cfg.Sync.RequestTimeout},
		log,
	)

	triggerService := appsync.NewTriggerService(
		stateRepo, tenantRepo, customerRepo, productRepo, orderRepo,
		jobQueue, cfg.Sync.MaxConsecutiveFailures, log,
	)

	// Queue consumer: one handler per entity-type queue
	consumer := queue.NewConsumer(jobQueue.Client(), cfg.Queue, log)
	for _, w := range []sync.Worker{customerWorker, productWorker, orderWorker} {
		worker := w
		consumer.Register(sync.QueueForEntityType(worker.EntityType()), func(ctx context.Context, job *sync.Job) error {
			_, err := worker.Run(ctx, job)
			return err
		})
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(rootCtx); err != nil {
		log.Fatal("Failed to start queue consumer", zap.Error(err))
	}

	// Scheduler
	syncScheduler := scheduler.NewSyncScheduler(tenantRepo, stateRepo, jobQueue, scheduler.SyncSchedulerConfig{
		CheckInterval: cfg.Sync.SchedulerCheckInterval,
		Intervals: map[sync.EntityType]time.Duration{
			sync.EntityTypeCustomers: cfg.Sync.CustomerInterval,
			sync.EntityTypeProducts:  cfg.Sync.ProductInterval,
			sync.EntityTypeOrders:    cfg.Sync.OrderInterval,
		},
		MaxConsecutiveFailures: cfg.Sync.MaxConsecutiveFailures,
	}, log)

	if cfg.Sync.SchedulerEnabled {
		if err := syncScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
	} else {
		log.Info("Sync scheduler disabled by configuration")
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.App.Name, tracerProvider.IsEnabled()),
		middleware.RequestLogger(log),
	)

	r := router.NewRouter(engine)
	r.Register(handler.NewHealthHandler(db))
	r.Register(handler.NewSyncHandler(triggerService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if cfg.Sync.SchedulerEnabled {
		if err := syncScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler shutdown failed", zap.Error(err))
		}
	}
	if err := consumer.Stop(shutdownCtx); err != nil {
		log.Error("Queue consumer shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
