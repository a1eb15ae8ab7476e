package service

import (
	"context"
	"fmt"

	"crowdguard/internal/models"
	"crowdguard/internal/repository"
)

const (
	DefaultLogLimit = 20
	MaxLogLimit     = 100
)

// LogService 审计日志查询
type LogService struct {
	logs repository.LogsRepository
}

// NewLogService 创建审计日志服务
func NewLogService(logs repository.LogsRepository) *LogService {
	return &LogService{logs: logs}
}

// ClampLogLimit 把 limit 限制在 [1, MaxLogLimit]
func ClampLogLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLogLimit {
		return MaxLogLimit
	}
	return limit
}

// ListLogs 按时间倒序返回最近的审计日志
func (s *LogService) ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	logs, err := s.logs.ListLogs(ctx, ClampLogLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return logs, nil
}
