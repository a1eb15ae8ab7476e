package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdguard/internal/models"
	"crowdguard/internal/repository"
)

// DefaultAlertLimit GET /alerts 返回条数
const DefaultAlertLimit = 20

// AlertService 报警服务
type AlertService struct {
	alerts repository.AlertsRepository
	audit  *Auditor
	now    func() time.Time
}

// NewAlertService 创建报警服务
func NewAlertService(alerts repository.AlertsRepository, audit *Auditor) *AlertService {
	return &AlertService{
		alerts: alerts,
		audit:  audit,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListAlerts 按时间倒序返回报警，可按状态过滤
func (s *AlertService) ListAlerts(ctx context.Context, status models.AlertStatus) ([]models.Alert, error) {
	alerts, err := s.alerts.ListAlerts(ctx, models.AlertFilters{Status: status, Limit: DefaultAlertLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// GetAlert 查询报警
func (s *AlertService) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := s.alerts.GetAlert(ctx, alertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Alert not found")
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// CreateAlert 手动创建报警
// alert_id 重复，或该区域已有 Active 报警时返回 ErrConflict
func (s *AlertService) CreateAlert(ctx context.Context, alert models.Alert) error {
	if err := validate(&alert); err != nil {
		return err
	}
	if alert.Time.IsZero() {
		alert.Time = s.now()
	}

	if err := s.alerts.CreateAlert(ctx, &alert); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return newError(ErrConflict, "Alert already exists or zone %s already has an active alert", alert.ZoneID)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}

	s.audit.Record(ctx, fmt.Sprintf("New alert created for zone %s", alert.ZoneID), models.SystemActor)
	return nil
}

// UpdateAlertStatus 更新报警状态和处理人
func (s *AlertService) UpdateAlertStatus(ctx context.Context, alertID string, update models.AlertUpdate) error {
	if err := validate(&update); err != nil {
		return err
	}

	current, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return err
	}
	if current.Status == update.Status && (update.Responder == nil || (current.Responder != nil && *current.Responder == *update.Responder)) {
		return newError(ErrNoChange, "No changes made")
	}

	if err := s.alerts.UpdateAlertStatus(ctx, alertID, update.Status, update.Responder); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return newError(ErrNotFound, "Alert not found")
		case errors.Is(err, repository.ErrDuplicate):
			return newError(ErrConflict, "Zone %s already has an active alert", current.ZoneID)
		}
		return fmt.Errorf("failed to update alert: %w", err)
	}

	performedBy := models.SystemActor
	if update.Responder != nil && *update.Responder != "" {
		performedBy = *update.Responder
	}
	s.audit.Record(ctx, fmt.Sprintf("Alert %s status updated to %s", alertID, update.Status), performedBy)
	return nil
}
