package generator

import (
	"context"
	"fmt"
	"time"

	"crowdguard/internal/density"
	"crowdguard/internal/models"
)

// AlertStore 报警的原子条件插入
type AlertStore interface {
	CreateIfNoActive(ctx context.Context, alert *models.Alert) (bool, error)
}

// AlertRaiser 高密度读数 -> 报警（同一区域已有 Active 报警时不重复创建）
type AlertRaiser struct {
	store AlertStore
	now   func() time.Time
	newID func() string
}

// NewAlertRaiser 创建报警生成器
func NewAlertRaiser(store AlertStore, now func() time.Time, newID func() string) *AlertRaiser {
	return &AlertRaiser{store: store, now: now, newID: newID}
}

// SeverityFor 超过容量为 High，否则为 Medium
func SeverityFor(peopleCount, capacity int) models.Severity {
	if density.ExceedsCapacity(peopleCount, capacity) {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// BuildAlert 构建 Active 报警
func BuildAlert(alertID string, zone models.Zone, reading *models.CrowdReading, at time.Time) *models.Alert {
	return &models.Alert{
		AlertID:  alertID,
		ZoneID:   zone.ZoneID,
		Severity: SeverityFor(reading.PeopleCount, zone.Capacity),
		Time:     at,
		Status:   models.AlertActive,
	}
}

// MaybeRaise 只处理 High 读数；返回 nil 表示无需报警或已被已有 Active 报警抑制
func (r *AlertRaiser) MaybeRaise(ctx context.Context, zone models.Zone, reading *models.CrowdReading) (*models.Alert, error) {
	if reading.DensityLevel != models.DensityHigh {
		return nil, nil
	}

	alert := BuildAlert(r.newID(), zone, reading, r.now())
	created, err := r.store.CreateIfNoActive(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("failed to raise alert for zone %s: %w", zone.ZoneID, err)
	}
	if !created {
		return nil, nil
	}
	return alert, nil
}
