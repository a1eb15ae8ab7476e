// Package app 组装存储、缓存、通知、生成器和 HTTP 服务
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"crowdguard/internal/auth"
	"crowdguard/internal/config"
	"crowdguard/internal/database"
	"crowdguard/internal/generator"
	"crowdguard/internal/httpapi"
	"crowdguard/internal/notifier"
	"crowdguard/internal/repository"
	"crowdguard/internal/seed"
	"crowdguard/internal/service"
	"crowdguard/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// shutdownTimeout HTTP 优雅关闭等待时间
const shutdownTimeout = 10 * time.Second

// App 服务（整合各层）
type App struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *notifier.MQTTClient

	repos     *repository.Repositories
	cache     *store.LatestCache
	notifiers *notifier.Multi
	generator *generator.Generator
	server    *service.Server
}

// New 创建服务；数据库未启用时使用内存存储
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{config: cfg, logger: logger}

	// 1. 存储
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.repos = repository.NewPostgresRepositories(db, logger)
	} else {
		logger.Warn("Database disabled, using in-memory store")
		a.repos = repository.NewMemoryRepositories(repository.NewMemoryStore())
	}

	// 2. Redis：最新读数缓存 + 报警流
	var streamNotifier notifier.Notifier
	if cfg.Redis.Enabled {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		a.cache = store.NewLatestCache(store.NewRedisKV(a.redisClient), cfg.Cache.LatestKeyPrefix, cfg.Cache.LatestSuffix, cfg.Cache.LatestTTL, logger)
		streamNotifier = notifier.NewRedisStreamNotifier(a.redisClient, cfg.Cache.AlertStream)
	}

	// 3. MQTT / Webhook
	var mqttNotifier, webhookNotifier notifier.Notifier
	if cfg.MQTT.Enabled {
		client, err := notifier.NewMQTTClient(&cfg.MQTT)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.mqttClient = client
		mqttNotifier = notifier.NewMQTTNotifier(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS)
	}
	if cfg.Webhook.URL != "" {
		webhookNotifier = notifier.NewWebhookNotifier(cfg.Webhook.URL, logger)
	}
	a.notifiers = notifier.NewMulti(logger, streamNotifier, mqttNotifier, webhookNotifier)

	hasher := auth.NewHasher(auth.DefaultParams)

	// 4. 演示数据
	if cfg.Seed.OnStart {
		rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
		if _, err := seed.SeedIfEmpty(ctx, a.repos, time.Now().UTC(), rng, hasher, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	// 5. 生成器
	opts := generator.Options{
		Interval:  cfg.Generator.Interval,
		ZoneLimit: cfg.Generator.ZoneLimit,
		Audit:     a.repos.Logs,
		Notifier:  a.notifiers,
	}
	var latest service.LatestReadings
	if a.cache != nil {
		opts.Cache = a.cache
		latest = a.cache
	}
	a.generator = generator.NewGenerator(a.repos.Zones, a.repos.CrowdData, a.repos.Alerts, opts, logger)

	// 6. HTTP
	svcs := service.NewServices(a.repos, hasher, latest, logger)
	router := httpapi.NewRouter(httpapi.NewHandler(svcs, logger), logger)
	a.server = service.NewServer(cfg.HTTP.Addr, router, logger)

	logger.Info("Service assembled",
		zap.Bool("postgres", a.db != nil),
		zap.Bool("redis", a.redisClient != nil),
		zap.Bool("mqtt", a.mqttClient != nil),
		zap.Bool("webhook", cfg.Webhook.URL != ""),
		zap.Int("notifiers", a.notifiers.Len()),
	)
	return a, nil
}

// Run 启动生成器和 HTTP 服务，ctx 取消后优雅关闭
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	genDone := make(chan struct{})
	if a.config.Generator.Enabled {
		go func() {
			defer close(genDone)
			_ = a.generator.Start(ctx)
		}()
	} else {
		a.logger.Info("Crowd data generator disabled")
		close(genDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	<-genDone

	return runErr
}

// Close 释放外部连接
func (a *App) Close() {
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Error("Failed to close database", zap.Error(err))
		}
	}
}
