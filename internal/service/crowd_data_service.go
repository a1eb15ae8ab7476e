package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"crowdguard/internal/density"
	"crowdguard/internal/models"
	"crowdguard/internal/repository"

	"go.uber.org/zap"
)

const (
	// DefaultReadingLimit GET /crowd-data 返回条数
	DefaultReadingLimit = 50
	// ExportReadingLimit 导出的最大条数
	ExportReadingLimit = 1000
)

// LatestReadings 最新读数缓存（可选）
type LatestReadings interface {
	PutLatest(ctx context.Context, reading *models.CrowdReading) error
	ListLatest(ctx context.Context) ([]models.CrowdReading, error)
	LatestEvictor
}

// AddReadingRequest 手动上报读数（POST /crowd-data）
// density_level 由服务端根据区域容量重新计算
type AddReadingRequest struct {
	ZoneID      string     `json:"zone_id" validate:"required"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	PeopleCount *int       `json:"people_count" validate:"required,gte=0"`
	// DensityLevel 兼容旧客户端，忽略
	DensityLevel string `json:"density_level,omitempty"`
}

// CrowdDataService 人流读数服务
type CrowdDataService struct {
	readings repository.CrowdDataRepository
	zones    repository.ZonesRepository
	cache    LatestReadings
	now      func() time.Time
	logger   *zap.Logger
}

// NewCrowdDataService 创建读数服务，cache 可以为 nil
func NewCrowdDataService(readings repository.CrowdDataRepository, zones repository.ZonesRepository, cache LatestReadings, logger *zap.Logger) *CrowdDataService {
	return &CrowdDataService{
		readings: readings,
		zones:    zones,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// ListReadings 按时间倒序返回读数，可按区域过滤
func (s *CrowdDataService) ListReadings(ctx context.Context, zoneID string) ([]models.CrowdReading, error) {
	return s.list(ctx, zoneID, DefaultReadingLimit)
}

// ExportReadings 导出用读数列表
func (s *CrowdDataService) ExportReadings(ctx context.Context, zoneID string) ([]models.CrowdReading, error) {
	return s.list(ctx, zoneID, ExportReadingLimit)
}

func (s *CrowdDataService) list(ctx context.Context, zoneID string, limit int) ([]models.CrowdReading, error) {
	readings, err := s.readings.ListReadings(ctx, models.CrowdDataFilters{ZoneID: zoneID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

// LatestReadings 每个区域最新一条读数
// 缓存覆盖全部区域时直接返回缓存；否则以数据库为准，再用缓存中更新的读数覆盖
func (s *CrowdDataService) LatestReadings(ctx context.Context) ([]models.CrowdReading, error) {
	var cached []models.CrowdReading
	if s.cache != nil {
		var err error
		cached, err = s.cache.ListLatest(ctx)
		if err != nil {
			s.logger.Warn("Latest reading cache unavailable, falling back to database", zap.Error(err))
			cached = nil
		}
	}

	if len(cached) > 0 {
		complete, err := s.cacheCoversZones(ctx, cached)
		if err != nil {
			return nil, err
		}
		if complete {
			return cached, nil
		}
	}

	readings, err := s.readings.LatestPerZone(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest readings: %w", err)
	}
	if len(cached) == 0 {
		return readings, nil
	}
	return mergeLatest(readings, cached), nil
}

// cacheCoversZones 缓存是否包含每个现存区域
func (s *CrowdDataService) cacheCoversZones(ctx context.Context, cached []models.CrowdReading) (bool, error) {
	zones, err := s.zones.ListZones(ctx, 0)
	if err != nil {
		return false, fmt.Errorf("failed to list zones: %w", err)
	}
	seen := make(map[string]struct{}, len(cached))
	for _, r := range cached {
		seen[r.ZoneID] = struct{}{}
	}
	for _, z := range zones {
		if _, ok := seen[z.ZoneID]; !ok {
			s.logger.Debug("Latest reading cache incomplete, merging with database",
				zap.String("missing_zone_id", z.ZoneID),
				zap.Int("cached", len(cached)),
				zap.Int("zones", len(zones)),
			)
			return false, nil
		}
	}
	return true, nil
}

// mergeLatest 按区域合并，时间戳较新的一方胜出，结果按 zone_id 排序
func mergeLatest(db, cached []models.CrowdReading) []models.CrowdReading {
	byZone := make(map[string]models.CrowdReading, len(db)+len(cached))
	for _, r := range db {
		byZone[r.ZoneID] = r
	}
	for _, r := range cached {
		if cur, ok := byZone[r.ZoneID]; !ok || r.Timestamp.After(cur.Timestamp) {
			byZone[r.ZoneID] = r
		}
	}
	out := make([]models.CrowdReading, 0, len(byZone))
	for _, r := range byZone {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out
}

// AddReading 写入一条读数，区域必须存在
func (s *CrowdDataService) AddReading(ctx context.Context, req AddReadingRequest) (*models.CrowdReading, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	zone, err := s.zones.GetZone(ctx, req.ZoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Zone not found")
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}

	reading := &models.CrowdReading{
		ZoneID:       zone.ZoneID,
		Timestamp:    s.now(),
		PeopleCount:  *req.PeopleCount,
		DensityLevel: density.Classify(*req.PeopleCount, zone.Capacity),
	}
	if req.Timestamp != nil {
		reading.Timestamp = req.Timestamp.UTC()
	}

	if err := s.readings.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.PutLatest(ctx, reading); err != nil {
			s.logger.Warn("Failed to refresh latest reading cache",
				zap.String("zone_id", reading.ZoneID),
				zap.Error(err),
			)
		}
	}
	return reading, nil
}
