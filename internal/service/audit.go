package service

import (
	"context"
	"time"

	"crowdguard/internal/models"
	"crowdguard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auditor 写审计日志；写入失败只记录日志，不影响业务操作
type Auditor struct {
	logs   repository.LogsRepository
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// NewAuditor 创建审计日志记录器
func NewAuditor(logs repository.LogsRepository, logger *zap.Logger) *Auditor {
	return &Auditor{
		logs:   logs,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Record 追加一条审计日志
func (a *Auditor) Record(ctx context.Context, action, performedBy string) {
	entry := &models.LogEntry{
		LogID:       a.newID(),
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   a.now(),
	}
	if err := a.logs.AppendLog(ctx, entry); err != nil {
		a.logger.Warn("Failed to append audit log",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
