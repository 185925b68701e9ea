package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/app"
	"github.com/qs3c/hms_go_server/internal/database"
	"github.com/qs3c/hms_go_server/internal/pkg/cron"
	"github.com/qs3c/hms_go_server/internal/pkg/email"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
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

	// 定时批处理
	scheduler, err := cron.NewService(cfg.Scheduler.Timezone, 0)
	if err != nil {
		logger.Fatal("failed to init scheduler", "error", err)
	}
	if err := a.Sweeps().Register(scheduler, &cfg.Scheduler); err != nil {
		logger.Fatal("failed to register sweeps", "error", err)
	}
	scheduler.Start()

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	// 邮件队列消费，阻塞到退出
	processor := worker.NewProcessor(email.NewService(&cfg.Email), a.MailQueue, 0)
	worker.NewConsumer(a.MailQueue, processor, cfg.Queue.MaxWorkers).Run(ctx)

	if err := scheduler.Stop(); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
	}
	logger.Info("worker shutdown complete")
}
