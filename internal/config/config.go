package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled  bool
	URL      string // 完整连接串，非空时优先于下面的分项
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string // 报警发布主题前缀，实际主题为 <prefix>/<zone_id>
}

// Config 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}

	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 最新读数缓存 / 报警流
	Cache struct {
		LatestKeyPrefix string        // 最新读数键前缀，如 "crowdguard:zone:"
		LatestSuffix    string        // 最新读数键后缀，如 ":latest"
		LatestTTL       time.Duration // 最新读数 TTL，默认 60 秒
		AlertStream     string        // 报警 Redis Stream 名称
	}

	// 模拟数据生成器
	Generator struct {
		Enabled   bool
		Interval  time.Duration // 两次生成之间的间隔（上一轮结束后开始计时），默认 10 秒
		ZoneLimit int           // 每轮最多读取的区域数，默认 100
	}

	Webhook struct {
		URL string // 为空表示不推送
	}

	Seed struct {
		OnStart bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")

	if cfg.Database.Enabled, err = getEnvBool("DB_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.Database.URL = getEnv("DATABASE_URL", "")
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	if cfg.Database.Port, err = getEnvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "crowdguard_db")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	if cfg.Database.MaxConns, err = getEnvInt("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdle, err = getEnvInt("DB_MAX_IDLE", 5); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled, err = getEnvBool("REDIS_ENABLED", false); err != nil {
		return nil, err
	}
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.MQTT.Enabled, err = getEnvBool("MQTT_ENABLED", false); err != nil {
		return nil, err
	}
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "crowdguard")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "crowdguard/alerts")

	cfg.Cache.LatestKeyPrefix = getEnv("CACHE_LATEST_PREFIX", "crowdguard:zone:")
	cfg.Cache.LatestSuffix = ":latest"
	ttl, err := getEnvInt("CACHE_LATEST_TTL", 60)
	if err != nil {
		return nil, err
	}
	cfg.Cache.LatestTTL = time.Duration(ttl) * time.Second
	cfg.Cache.AlertStream = getEnv("ALERT_STREAM", "crowdguard:alerts")

	if cfg.Generator.Enabled, err = getEnvBool("GENERATOR_ENABLED", true); err != nil {
		return nil, err
	}
	interval, err := getEnvInt("GENERATOR_INTERVAL", 10)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("GENERATOR_INTERVAL must be positive, got %d", interval)
	}
	cfg.Generator.Interval = time.Duration(interval) * time.Second
	if cfg.Generator.ZoneLimit, err = getEnvInt("GENERATOR_ZONE_LIMIT", 100); err != nil {
		return nil, err
	}

	cfg.Webhook.URL = getEnv("ALERT_WEBHOOK_URL", "")

	if cfg.Seed.OnStart, err = getEnvBool("SEED_ON_START", false); err != nil {
		return nil, err
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
