package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/application/notification"
	"github.com/commerceops/backend/internal/application/reconcile"
	"github.com/commerceops/backend/internal/infrastructure/cache"
	"github.com/commerceops/backend/internal/infrastructure/config"
	"github.com/commerceops/backend/internal/infrastructure/logger"
	"github.com/commerceops/backend/internal/infrastructure/persistence"
	"github.com/commerceops/backend/internal/infrastructure/provider"
	"github.com/commerceops/backend/internal/infrastructure/scheduler"
	"github.com/commerceops/backend/internal/interfaces/http/handler"
	"github.com/commerceops/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting order reconciliation service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database ready")

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	deliveryRepo := persistence.NewGormWebhookDeliveryRepository(db.DB)

	runLock, err := cache.NewRunLockFactory(cfg,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).Create()
	if err != nil {
		log.Fatal("failed to create run lock", zap.Error(err))
	}
	syncHistory := cache.NewInMemorySyncHistory()

	clients := provider.BuildFromCredentials(cfg.Provider, cfg.IsProduction(), log)
	registry := provider.NewStaticClientRegistry()
	registry.Register(provider.DefaultOperationID, clients)

	dispatcher := notification.NewDispatcher(cfg.Webhook, deliveryRepo, log)

	engine := reconcile.NewEngine(registry, orderRepo, syncHistory, runLock, dispatcher, cfg.Sync, log)

	if cfg.Sync.SchedulerEnabled {
		syncScheduler := scheduler.NewSyncScheduler(
			engine,
			[]string{provider.DefaultOperationID},
			cfg.Sync.Interval,
			log,
		)
		syncScheduler.Start()
		defer syncScheduler.Stop()
		log.Info("sync scheduler started", zap.Duration("interval", cfg.Sync.Interval))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ginEngine := gin.New()
	ginEngine.Use(logger.Recovery(log))
	ginEngine.Use(logger.GinMiddleware(log))

	ginEngine.GET("/healthz", handler.NewHealthHandler(db).Healthz)

	r := router.New(ginEngine, router.WithAPIVersion("v1"))
	r.Register(
		handler.NewSyncHandler(engine),
		handler.NewWebhookHandler(dispatcher, deliveryRepo),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      ginEngine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
