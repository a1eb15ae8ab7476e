package database

import (
	"context"
	"database/sql"
	"fmt"

	"crowdguard/internal/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB 创建PostgreSQL数据库连接
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// schema 建表语句，全部幂等
// 不建外键：删除区域不影响历史读数和报警
var schema = []string{
	`CREATE TABLE IF NOT EXISTS zones (
		zone_id       TEXT PRIMARY KEY,
		location_name TEXT NOT NULL,
		capacity      INTEGER NOT NULL CHECK (capacity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS crowd_data (
		id            BIGSERIAL PRIMARY KEY,
		zone_id       TEXT NOT NULL,
		timestamp     TIMESTAMPTZ NOT NULL,
		people_count  INTEGER NOT NULL CHECK (people_count >= 0),
		density_level TEXT NOT NULL CHECK (density_level IN ('Low', 'Medium', 'High'))
	)`,
	`CREATE INDEX IF NOT EXISTS crowd_data_zone_time ON crowd_data (zone_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		alert_id  TEXT PRIMARY KEY,
		zone_id   TEXT NOT NULL,
		severity  TEXT NOT NULL CHECK (severity IN ('Low', 'Medium', 'High')),
		time      TIMESTAMPTZ NOT NULL,
		status    TEXT NOT NULL CHECK (status IN ('Active', 'Acknowledged', 'Resolved')),
		responder TEXT
	)`,
	// 每个区域最多一条 Active 报警；生成器依赖它做原子去重
	`CREATE UNIQUE INDEX IF NOT EXISTS alerts_one_active_per_zone ON alerts (zone_id) WHERE status = 'Active'`,
	`CREATE INDEX IF NOT EXISTS alerts_time ON alerts (time DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id       TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL,
		contact       TEXT NOT NULL,
		zone_assigned TEXT,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		log_id       TEXT PRIMARY KEY,
		action       TEXT NOT NULL,
		performed_by TEXT NOT NULL,
		timestamp    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS logs_timestamp ON logs (timestamp DESC)`,
}

// Migrate 创建表和索引
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Truncate 清空全部业务表（仅用于 seed）
func Truncate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE zones, crowd_data, alerts, users, logs`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
