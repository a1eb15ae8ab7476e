package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// PostgresZonesRepository 区域仓库（PostgreSQL）
type PostgresZonesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresZonesRepository 创建区域仓库
func NewPostgresZonesRepository(db *sql.DB, logger *zap.Logger) *PostgresZonesRepository {
	return &PostgresZonesRepository{db: db, logger: logger}
}

// ListZones 按 zone_id 排序返回区域，limit<=0 表示不限制
func (r *PostgresZonesRepository) ListZones(ctx context.Context, limit int) ([]models.Zone, error) {
	query := `SELECT zone_id, location_name, capacity FROM zones ORDER BY zone_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	zones := make([]models.Zone, 0)
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(&z.ZoneID, &z.LocationName, &z.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zones: %w", err)
	}
	return zones, nil
}

// GetZone 根据 zone_id 获取区域
func (r *PostgresZonesRepository) GetZone(ctx context.Context, zoneID string) (*models.Zone, error) {
	var z models.Zone
	err := r.db.QueryRowContext(ctx,
		`SELECT zone_id, location_name, capacity FROM zones WHERE zone_id = $1`,
		zoneID,
	).Scan(&z.ZoneID, &z.LocationName, &z.Capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("zone %s: %w", zoneID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	return &z, nil
}

// CreateZone 创建区域
func (r *PostgresZonesRepository) CreateZone(ctx context.Context, zone *models.Zone) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO zones (zone_id, location_name, capacity) VALUES ($1, $2, $3)`,
		zone.ZoneID, zone.LocationName, zone.Capacity,
	)
	if err != nil {
		if isUniqueViolation(r.logger, err, "zones", zone.ZoneID) {
			return fmt.Errorf("zone %s: %w", zone.ZoneID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create zone: %w", err)
	}
	return nil
}

// UpdateZone 覆盖区域的可变字段
func (r *PostgresZonesRepository) UpdateZone(ctx context.Context, zone *models.Zone) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE zones SET location_name = $2, capacity = $3 WHERE zone_id = $1`,
		zone.ZoneID, zone.LocationName, zone.Capacity,
	)
	if err != nil {
		return fmt.Errorf("failed to update zone: %w", err)
	}
	return expectAffected(res, "zone", zone.ZoneID)
}

// DeleteZone 删除区域（历史读数和报警保留）
func (r *PostgresZonesRepository) DeleteZone(ctx context.Context, zoneID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE zone_id = $1`, zoneID)
	if err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	return expectAffected(res, "zone", zoneID)
}

func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
