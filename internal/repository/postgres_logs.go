package repository

import (
	"context"
	"database/sql"
	"fmt"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// PostgresLogsRepository 审计日志仓库（PostgreSQL）
type PostgresLogsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresLogsRepository 创建审计日志仓库
func NewPostgresLogsRepository(db *sql.DB, logger *zap.Logger) *PostgresLogsRepository {
	return &PostgresLogsRepository{db: db, logger: logger}
}

// AppendLog 追加一条日志
func (r *PostgresLogsRepository) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (log_id, action, performed_by, timestamp) VALUES ($1, $2, $3, $4)`,
		entry.LogID, entry.Action, entry.PerformedBy, entry.Timestamp,
	)
	if err != nil {
		if isUniqueViolation(r.logger, err, "logs", entry.LogID) {
			return fmt.Errorf("log %s: %w", entry.LogID, ErrDuplicate)
		}
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// ListLogs 按时间倒序返回最近的日志
func (r *PostgresLogsRepository) ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT log_id, action, performed_by, timestamp FROM logs ORDER BY timestamp DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LogEntry, 0)
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.LogID, &e.Action, &e.PerformedBy, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}
	return entries, nil
}

// NewPostgresRepositories 基于同一个 *sql.DB 创建全部仓库
func NewPostgresRepositories(db *sql.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Zones:     NewPostgresZonesRepository(db, logger),
		CrowdData: NewPostgresCrowdDataRepository(db, logger),
		Alerts:    NewPostgresAlertsRepository(db, logger),
		Users:     NewPostgresUsersRepository(db, logger),
		Logs:      NewPostgresLogsRepository(db, logger),
	}
}
