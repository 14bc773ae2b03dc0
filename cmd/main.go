package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"coin-catalog/internal/api"
	"coin-catalog/internal/catalog"
	"coin-catalog/internal/service"
	"coin-catalog/internal/web"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config", "directory containing config.yaml")
	flag.Parse()

	// 1. .env 中可以放 CATALOG_API_APIKEY 等敏感配置
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: error loading .env file: %v", err)
	}

	// 2. 加载配置
	cfg, err := service.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 3. 初始化日志
	if err := service.InitLogger(cfg.Log.Level); err != nil {
		log.Fatalf("%v", err)
	}
	defer service.Logger.Sync()

	service.Logger.Info("Starting coin catalog",
		zap.String("api", cfg.API.BaseURL),
		zap.String("currency", cfg.Catalog.Currency),
		zap.Int("page_size", cfg.Catalog.PageSize),
	)

	// 4. 行情数据源 (所有视图共享同一个限流器)
	client := api.NewClient(api.ConfigFrom(cfg), service.Logger)

	// 5. HTTP 服务
	server, err := web.NewServer(cfg.Server, client, catalog.ListOptionsFrom(cfg), service.Logger)
	if err != nil {
		service.Logger.Fatal("Failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		service.Logger.Fatal("Server stopped with error", zap.Error(err))
	}
	service.Logger.Info("Bye")
}
