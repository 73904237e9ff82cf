package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Kopuraj/SEM-Tracker/config"
	"github.com/Kopuraj/SEM-Tracker/internal/api/handler"
	"github.com/Kopuraj/SEM-Tracker/internal/api/router"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
	"github.com/Kopuraj/SEM-Tracker/internal/service"
	"github.com/Kopuraj/SEM-Tracker/pkg/database"
	"github.com/Kopuraj/SEM-Tracker/pkg/jwt"
	applogger "github.com/Kopuraj/SEM-Tracker/pkg/logger"
	"github.com/Kopuraj/SEM-Tracker/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("SEM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting sem-tracker",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis is optional: reminder statuses fall back to memory and
	// rate limiting is disabled without it
	var store service.ReminderStatusStore
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory reminder statuses", zap.Error(err))
		rdb = nil
		store = service.NewMemoryStatusStore()
	} else {
		store = service.NewRedisStatusStore(rdb, cfg.Reminder.StatusTTL)
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 5. Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, store, service.NewLogSender(logger), logger)
	h := handler.NewHandler(svc)

	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 6. reminder dispatcher
	rootCtx, stopReminders := context.WithCancel(context.Background())
	defer stopReminders()
	if cfg.Reminder.Enabled {
		if err := svc.Reminder.Start(rootCtx); err != nil {
			logger.Fatal("reminder dispatcher failed to start", zap.Error(err))
		}
	}

	// 7. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	stopReminders()
	svc.Reminder.Stop()

	if err := sqlDB.Close(); err != nil {
		logger.Error("database close failed", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close failed", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}
