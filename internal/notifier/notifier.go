// Package notifier 报警通知：生成器新建报警后推送到外部系统（Redis Streams / MQTT / Webhook）
package notifier

import (
	"context"
	"errors"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// AlertEvent 报警通知内容
type AlertEvent struct {
	Alert       models.Alert `json:"alert"`
	Zone        models.Zone  `json:"zone"`
	PeopleCount int          `json:"people_count"`
}

// Notifier 报警通知接口
type Notifier interface {
	NotifyAlert(ctx context.Context, event *AlertEvent) error
}

// Multi 依次调用全部 notifier；单个失败不影响其它，错误合并返回
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMulti 创建组合通知器，nil 会被忽略
func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	m := &Multi{logger: logger}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len 已注册的通知器数量
func (m *Multi) Len() int {
	return len(m.notifiers)
}

// NotifyAlert 推送到全部通知器
func (m *Multi) NotifyAlert(ctx context.Context, event *AlertEvent) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyAlert(ctx, event); err != nil {
			m.logger.Warn("Alert notification failed",
				zap.String("alert_id", event.Alert.AlertID),
				zap.String("zone_id", event.Alert.ZoneID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
