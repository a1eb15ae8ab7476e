package repository

import (
	"context"
	"errors"

	"crowdguard/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一键冲突（主键重复，或同一区域已有 Active 报警）
	ErrDuplicate = errors.New("duplicate record")
)

// ZonesRepository 区域Repository接口
type ZonesRepository interface {
	ListZones(ctx context.Context, limit int) ([]models.Zone, error)
	GetZone(ctx context.Context, zoneID string) (*models.Zone, error)
	CreateZone(ctx context.Context, zone *models.Zone) error
	UpdateZone(ctx context.Context, zone *models.Zone) error
	DeleteZone(ctx context.Context, zoneID string) error
}

// CrowdDataRepository 人流读数Repository接口
type CrowdDataRepository interface {
	InsertReading(ctx context.Context, reading *models.CrowdReading) error
	ListReadings(ctx context.Context, filters models.CrowdDataFilters) ([]models.CrowdReading, error)
	// LatestPerZone 每个区域最新的一条读数
	LatestPerZone(ctx context.Context) ([]models.CrowdReading, error)
}

// AlertsRepository 报警Repository接口
type AlertsRepository interface {
	// CreateAlert 直接插入；alert_id 重复或违反"每区域一条 Active"约束时返回 ErrDuplicate
	CreateAlert(ctx context.Context, alert *models.Alert) error
	// CreateIfNoActive 原子条件插入：该区域已有 Active 报警时不插入并返回 false
	CreateIfNoActive(ctx context.Context, alert *models.Alert) (bool, error)
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filters models.AlertFilters) ([]models.Alert, error)
	UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus, responder *string) error
}

// UsersRepository 用户Repository接口
type UsersRepository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// LogsRepository 审计日志Repository接口
type LogsRepository interface {
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
}

// Repositories 全部仓库的集合，Postgres 与内存实现都可以填充
type Repositories struct {
	Zones     ZonesRepository
	CrowdData CrowdDataRepository
	Alerts    AlertsRepository
	Users     UsersRepository
	Logs      LogsRepository
}

// uniqueViolation Postgres 唯一约束冲突
const uniqueViolation = "23505"

// isUniqueViolation 判断唯一约束冲突，命中时以 debug 级别记录约束名
func isUniqueViolation(logger *zap.Logger, err error, table, id string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	logger.Debug("Unique violation mapped to ErrDuplicate",
		zap.String("table", table),
		zap.String("id", id),
		zap.String("constraint", pqErr.Constraint),
	)
	return true
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
