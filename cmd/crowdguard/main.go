package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crowdguard/internal/app"
	"crowdguard/internal/config"
	"crowdguard/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载 .env（不存在时忽略）和配置
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "crowdguard")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 等待信号（优雅关闭）
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. 组装并运行
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create service", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("Service error", zap.Error(err))
		return
	}
	log.Info("CrowdGuard stopped")
}
