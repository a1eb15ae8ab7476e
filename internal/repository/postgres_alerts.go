package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// PostgresAlertsRepository 报警仓库（PostgreSQL）
// "每区域最多一条 Active 报警" 由部分唯一索引 alerts_one_active_per_zone 保证
type PostgresAlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAlertsRepository 创建报警仓库
func NewPostgresAlertsRepository(db *sql.DB, logger *zap.Logger) *PostgresAlertsRepository {
	return &PostgresAlertsRepository{db: db, logger: logger}
}

const alertColumns = `alert_id, zone_id, severity, time, status, responder`

// CreateAlert 插入报警
func (r *PostgresAlertsRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.AlertID, alert.ZoneID, string(alert.Severity), alert.Time, string(alert.Status), nullString(alert.Responder),
	)
	if err != nil {
		if isUniqueViolation(r.logger, err, "alerts", alert.AlertID) {
			return fmt.Errorf("alert %s: %w", alert.AlertID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// CreateIfNoActive 单条语句完成"检查 + 插入"，避免并发时重复生成 Active 报警
func (r *PostgresAlertsRepository) CreateIfNoActive(ctx context.Context, alert *models.Alert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (zone_id) WHERE status = 'Active' DO NOTHING
	`,
		alert.AlertID, alert.ZoneID, string(alert.Severity), alert.Time, string(alert.Status), nullString(alert.Responder),
	)
	if err != nil {
		if isUniqueViolation(r.logger, err, "alerts", alert.AlertID) {
			return false, fmt.Errorf("alert %s: %w", alert.AlertID, ErrDuplicate)
		}
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// GetAlert 根据 alert_id 获取报警
func (r *PostgresAlertsRepository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE alert_id = $1`, alertID)
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// ListAlerts 按时间倒序返回报警
func (r *PostgresAlertsRepository) ListAlerts(ctx context.Context, filters models.AlertFilters) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	args := []any{}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	query += ` ORDER BY time DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}

// UpdateAlertStatus 更新状态；responder 为 nil 时保留原值
func (r *PostgresAlertsRepository) UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus, responder *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET status = $2, responder = COALESCE($3, responder) WHERE alert_id = $1`,
		alertID, string(status), nullString(responder),
	)
	if err != nil {
		if isUniqueViolation(r.logger, err, "alerts", alertID) {
			return fmt.Errorf("alert %s: %w", alertID, ErrDuplicate)
		}
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return expectAffected(res, "alert", alertID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		alert     models.Alert
		severity  string
		status    string
		responder sql.NullString
	)
	if err := row.Scan(&alert.AlertID, &alert.ZoneID, &severity, &alert.Time, &status, &responder); err != nil {
		return nil, err
	}
	alert.Severity = models.Severity(severity)
	alert.Status = models.AlertStatus(status)
	if responder.Valid {
		alert.Responder = &responder.String
	}
	return &alert, nil
}
