package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"crowdguard/internal/auth"
	"crowdguard/internal/config"
	"crowdguard/internal/database"
	"crowdguard/internal/logger"
	"crowdguard/internal/repository"
	"crowdguard/internal/seed"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// 清空数据库并写入演示数据
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "crowdguard-seed")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	log.Info("Clearing existing data")
	if err := database.Truncate(ctx, db); err != nil {
		log.Fatal("Failed to clear database", zap.Error(err))
	}

	now := time.Now().UTC()
	rng := rand.New(rand.NewPCG(uint64(now.UnixNano()), rand.Uint64()))
	ds, err := seed.BuildDataset(now, rng, auth.NewHasher(auth.DefaultParams))
	if err != nil {
		log.Fatal("Failed to build seed data", zap.Error(err))
	}
	if err := seed.Apply(ctx, repository.NewPostgresRepositories(db, log), ds, log); err != nil {
		log.Fatal("Failed to seed database", zap.Error(err))
	}
}
