package service

import (
	"context"
	"errors"
	"fmt"

	"crowdguard/internal/models"
	"crowdguard/internal/repository"

	"go.uber.org/zap"
)

// LatestEvictor 删除区域时清理其缓存读数
type LatestEvictor interface {
	Evict(ctx context.Context, zoneID string) error
}

// ZoneService 区域服务
// 删除区域不会级联删除其读数和报警，只清理最新读数缓存
type ZoneService struct {
	zones  repository.ZonesRepository
	cache  LatestEvictor
	audit  *Auditor
	logger *zap.Logger
}

// NewZoneService 创建区域服务，cache 可以为 nil
func NewZoneService(zones repository.ZonesRepository, cache LatestEvictor, audit *Auditor, logger *zap.Logger) *ZoneService {
	return &ZoneService{zones: zones, cache: cache, audit: audit, logger: logger}
}

// ListZones 全部区域
func (s *ZoneService) ListZones(ctx context.Context) ([]models.Zone, error) {
	zones, err := s.zones.ListZones(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

// GetZone 查询区域
func (s *ZoneService) GetZone(ctx context.Context, zoneID string) (*models.Zone, error) {
	zone, err := s.zones.GetZone(ctx, zoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Zone not found")
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	return zone, nil
}

// CreateZone 创建区域
func (s *ZoneService) CreateZone(ctx context.Context, zone models.Zone) error {
	if err := validate(&zone); err != nil {
		return err
	}

	if err := s.zones.CreateZone(ctx, &zone); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return newError(ErrConflict, "Zone ID already exists")
		}
		return fmt.Errorf("failed to create zone: %w", err)
	}

	s.audit.Record(ctx, fmt.Sprintf("Zone %s created", zone.ZoneID), models.SystemActor)
	return nil
}

// UpdateZone 部分更新区域；没有实际变化时返回 ErrNoChange
func (s *ZoneService) UpdateZone(ctx context.Context, zoneID string, patch models.ZonePatch) error {
	if err := validate(&patch); err != nil {
		return err
	}

	zone, err := s.GetZone(ctx, zoneID)
	if err != nil {
		return err
	}
	if patch.IsEmpty() || !patch.Apply(zone) {
		return newError(ErrNoChange, "No changes made")
	}

	if err := s.zones.UpdateZone(ctx, zone); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Zone not found")
		}
		return fmt.Errorf("failed to update zone: %w", err)
	}

	s.audit.Record(ctx, fmt.Sprintf("Zone %s updated", zoneID), models.SystemActor)
	return nil
}

// DeleteZone 删除区域
func (s *ZoneService) DeleteZone(ctx context.Context, zoneID string) error {
	if err := s.zones.DeleteZone(ctx, zoneID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Zone not found")
		}
		return fmt.Errorf("failed to delete zone: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Evict(ctx, zoneID); err != nil {
			s.logger.Warn("Failed to evict latest reading cache",
				zap.String("zone_id", zoneID),
				zap.Error(err),
			)
		}
	}

	s.audit.Record(ctx, fmt.Sprintf("Zone %s deleted", zoneID), models.SystemActor)
	return nil
}
