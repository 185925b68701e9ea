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

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/app"
	"github.com/qs3c/hms_go_server/internal/database"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/pubsub"
	"github.com/qs3c/hms_go_server/internal/pkg/ws"
	"github.com/qs3c/hms_go_server/internal/worker"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect database", "error", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("failed to migrate database", "error", err)
		}
	}
	logger.Info("database connected", "driver", cfg.Database.Driver)

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect redis", "error", err)
	}
	logger.Info("redis connected")

	a, err := app.New(cfg, db, rdb)
	if err != nil {
		logger.Fatal("failed to init services", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket Hub 与通知转发
	wsHub := ws.NewHub()
	relay := worker.NewRelay(pubsub.NewSubscriber(rdb), wsHub)
	go func() {
		if err := relay.Run(ctx); err != nil {
			logger.Error("notification relay stopped", "error", err)
		}
	}()

	engine := a.Router(wsHub).Setup()
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
