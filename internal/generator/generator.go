// Package generator 人流模拟：周期性为每个区域生成读数，高密度时创建报警
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"crowdguard/internal/models"
	"crowdguard/internal/notifier"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultInterval 两次 tick 之间的默认间隔
	DefaultInterval = 10 * time.Second
	// DefaultZoneLimit 每次 tick 最多处理的区域数
	DefaultZoneLimit = 100
)

// ZoneSource 区域来源
type ZoneSource interface {
	ListZones(ctx context.Context, limit int) ([]models.Zone, error)
}

// ReadingSink 读数持久化
type ReadingSink interface {
	InsertReading(ctx context.Context, reading *models.CrowdReading) error
}

// LatestCache 最新读数缓存（可选）
type LatestCache interface {
	PutLatest(ctx context.Context, reading *models.CrowdReading) error
}

// AuditLog 审计日志（可选）
type AuditLog interface {
	AppendLog(ctx context.Context, entry *models.LogEntry) error
}

// Options 生成器可选项，零值使用默认值
type Options struct {
	Interval  time.Duration
	ZoneLimit int
	Now       func() time.Time
	Rand      RandomSource
	NewID     func() string

	Cache    LatestCache
	Audit    AuditLog
	Notifier notifier.Notifier
}

// TickResult 单次 tick 的统计
type TickResult struct {
	Zones      int
	Readings   int
	Alerts     []models.Alert
	Suppressed int
	Failures   int
}

// Generator 模拟生成循环
type Generator struct {
	zones    ZoneSource
	readings ReadingSink
	synth    *Synthesizer
	raiser   *AlertRaiser

	cache    LatestCache
	audit    AuditLog
	notifier notifier.Notifier

	interval  time.Duration
	zoneLimit int
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// NewGenerator 创建生成器
func NewGenerator(zones ZoneSource, readings ReadingSink, alerts AlertStore, opts Options, logger *zap.Logger) *Generator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ZoneLimit <= 0 {
		opts.ZoneLimit = DefaultZoneLimit
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Generator{
		zones:     zones,
		readings:  readings,
		synth:     NewSynthesizer(opts.Now, opts.Rand),
		raiser:    NewAlertRaiser(alerts, opts.Now, opts.NewID),
		cache:     opts.Cache,
		audit:     opts.Audit,
		notifier:  opts.Notifier,
		interval:  opts.Interval,
		zoneLimit: opts.ZoneLimit,
		now:       opts.Now,
		newID:     opts.NewID,
		logger:    logger,
	}
}

// Start 启动生成循环：立即执行一次 tick，之后每次 tick 结束后等待 interval
// ctx 取消时返回 nil
func (g *Generator) Start(ctx context.Context) error {
	g.logger.Info("Crowd data generator started",
		zap.Duration("interval", g.interval),
		zap.Int("zone_limit", g.zoneLimit),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Crowd data generator stopped")
			return nil
		case <-timer.C:
		}

		result, err := g.Tick(ctx)
		if err != nil {
			g.logger.Error("Generator tick failed", zap.Error(err))
			// 继续执行，不中断
		} else {
			g.logger.Debug("Generator tick finished",
				zap.Int("zones", result.Zones),
				zap.Int("readings", result.Readings),
				zap.Int("alerts", len(result.Alerts)),
				zap.Int("suppressed", result.Suppressed),
				zap.Int("failures", result.Failures),
			)
		}

		timer.Reset(g.interval)
	}
}

// Tick 执行一轮：为每个区域生成读数并按需报警
// 只有区域列表读取失败才返回错误；单个区域失败记录日志后继续
func (g *Generator) Tick(ctx context.Context) (TickResult, error) {
	start := time.Now()
	defer func() { tickDuration.Observe(time.Since(start).Seconds()) }()

	var result TickResult

	zones, err := g.zones.ListZones(ctx, g.zoneLimit)
	if err != nil {
		ticksTotal.WithLabelValues("error").Inc()
		return result, fmt.Errorf("failed to list zones: %w", err)
	}
	result.Zones = len(zones)

	outcome := "ok"
	for _, zone := range zones {
		// 检查上下文是否已取消
		if ctx.Err() != nil {
			outcome = "cancelled"
			break
		}

		alert, err := g.processZone(ctx, zone, &result)
		if err != nil {
			result.Failures++
			zoneFailuresTotal.Inc()
			level := zap.ErrorLevel
			if errors.Is(err, ErrCapacityTooSmall) {
				level = zap.WarnLevel
			}
			g.logger.Log(level, "Failed to generate crowd data for zone",
				zap.String("zone_id", zone.ZoneID),
				zap.Error(err),
			)
			continue
		}
		if alert != nil {
			result.Alerts = append(result.Alerts, *alert)
		}
	}

	ticksTotal.WithLabelValues(outcome).Inc()
	return result, nil
}

// processZone 单个区域：模拟 -> 持久化 -> 缓存 -> 报警
func (g *Generator) processZone(ctx context.Context, zone models.Zone, result *TickResult) (*models.Alert, error) {
	reading, err := g.synth.Synthesize(zone)
	if err != nil {
		return nil, err
	}

	if err := g.readings.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}
	result.Readings++
	readingsTotal.WithLabelValues(string(reading.DensityLevel)).Inc()

	if g.cache != nil {
		if err := g.cache.PutLatest(ctx, reading); err != nil {
			g.logger.Warn("Failed to refresh latest reading cache",
				zap.String("zone_id", zone.ZoneID),
				zap.Error(err),
			)
		}
	}

	alert, err := g.raiser.MaybeRaise(ctx, zone, reading)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		if reading.DensityLevel == models.DensityHigh {
			result.Suppressed++
			alertsSuppressedTotal.Inc()
		}
		return nil, nil
	}

	alertsRaisedTotal.WithLabelValues(string(alert.Severity)).Inc()
	g.logger.Info("Alert raised",
		zap.String("alert_id", alert.AlertID),
		zap.String("zone_id", zone.ZoneID),
		zap.String("severity", string(alert.Severity)),
		zap.Int("people_count", reading.PeopleCount),
		zap.Int("capacity", zone.Capacity),
	)

	g.recordAlert(ctx, alert)
	g.notify(ctx, alert, zone, reading)
	return alert, nil
}

// recordAlert 写入报警审计日志
func (g *Generator) recordAlert(ctx context.Context, alert *models.Alert) {
	if g.audit == nil {
		return
	}
	entry := &models.LogEntry{
		LogID:       g.newID(),
		Action:      fmt.Sprintf("Alert %s created for zone %s", alert.AlertID, alert.ZoneID),
		PerformedBy: models.SystemActor,
		Timestamp:   g.now(),
	}
	if err := g.audit.AppendLog(ctx, entry); err != nil {
		g.logger.Warn("Failed to append alert audit log",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}
}

// notify 推送报警通知，失败只记录日志（Multi 内部已逐个记录）
func (g *Generator) notify(ctx context.Context, alert *models.Alert, zone models.Zone, reading *models.CrowdReading) {
	if g.notifier == nil {
		return
	}
	event := &notifier.AlertEvent{Alert: *alert, Zone: zone, PeopleCount: reading.PeopleCount}
	if err := g.notifier.NotifyAlert(ctx, event); err != nil {
		g.logger.Debug("Alert notification finished with errors",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}
}
