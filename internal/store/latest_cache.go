package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// LatestCache 每个区域最新读数的缓存
// 键格式：<prefix><zone_id><suffix>，如 crowdguard:zone:Z01:latest
type LatestCache struct {
	kv     KV
	prefix string
	suffix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewLatestCache 创建最新读数缓存
func NewLatestCache(kv KV, prefix, suffix string, ttl time.Duration, logger *zap.Logger) *LatestCache {
	return &LatestCache{kv: kv, prefix: prefix, suffix: suffix, ttl: ttl, logger: logger}
}

// Key 构建区域的缓存键
func (c *LatestCache) Key(zoneID string) string {
	return c.prefix + zoneID + c.suffix
}

// PutLatest 写入区域最新读数（带 TTL，区域删除后自然过期）
// 以读数时间戳（毫秒）为版本号，比缓存中更早的读数不会覆盖
func (c *LatestCache) PutLatest(ctx context.Context, reading *models.CrowdReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	written, err := c.kv.SetIfNewer(ctx, c.Key(reading.ZoneID), string(data), reading.Timestamp.UnixMilli(), c.ttl)
	if err != nil {
		return fmt.Errorf("failed to cache latest reading: %w", err)
	}
	if !written {
		c.logger.Debug("Skipped stale latest reading",
			zap.String("zone_id", reading.ZoneID),
			zap.Time("timestamp", reading.Timestamp),
		)
	}
	return nil
}

// Evict 删除区域的缓存读数
func (c *LatestCache) Evict(ctx context.Context, zoneID string) error {
	if err := c.kv.Del(ctx, c.Key(zoneID)); err != nil {
		return fmt.Errorf("failed to evict latest reading: %w", err)
	}
	return nil
}

// GetLatest 读取单个区域的最新读数，不存在返回 ErrMiss
func (c *LatestCache) GetLatest(ctx context.Context, zoneID string) (*models.CrowdReading, error) {
	raw, err := c.kv.Get(ctx, c.Key(zoneID))
	if err != nil {
		return nil, err
	}
	var reading models.CrowdReading
	if err := json.Unmarshal([]byte(raw), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return &reading, nil
}

// ListLatest 读取全部区域的最新读数，按 zone_id 排序
// 单个键读取失败（过期、格式错误）时跳过
func (c *LatestCache) ListLatest(ctx context.Context) ([]models.CrowdReading, error) {
	keys, err := c.kv.ScanKeys(ctx, c.prefix+"*"+c.suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan latest keys: %w", err)
	}

	out := make([]models.CrowdReading, 0, len(keys))
	for _, key := range keys {
		raw, err := c.kv.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrMiss) {
				c.logger.Warn("Failed to read latest reading from cache",
					zap.String("key", key),
					zap.Error(err),
				)
			}
			continue
		}
		var reading models.CrowdReading
		if err := json.Unmarshal([]byte(raw), &reading); err != nil {
			c.logger.Warn("Malformed latest reading in cache",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		out = append(out, reading)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out, nil
}
