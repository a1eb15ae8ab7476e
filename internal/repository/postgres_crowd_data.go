package repository

import (
	"context"
	"database/sql"
	"fmt"

	"crowdguard/internal/models"

	"go.uber.org/zap"
)

// PostgresCrowdDataRepository 人流读数仓库（PostgreSQL）
type PostgresCrowdDataRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresCrowdDataRepository 创建人流读数仓库
func NewPostgresCrowdDataRepository(db *sql.DB, logger *zap.Logger) *PostgresCrowdDataRepository {
	return &PostgresCrowdDataRepository{db: db, logger: logger}
}

// InsertReading 追加一条读数
func (r *PostgresCrowdDataRepository) InsertReading(ctx context.Context, reading *models.CrowdReading) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO crowd_data (zone_id, timestamp, people_count, density_level) VALUES ($1, $2, $3, $4)`,
		reading.ZoneID, reading.Timestamp, reading.PeopleCount, string(reading.DensityLevel),
	)
	if err != nil {
		return fmt.Errorf("failed to insert crowd reading: %w", err)
	}
	return nil
}

// ListReadings 按时间倒序返回读数
func (r *PostgresCrowdDataRepository) ListReadings(ctx context.Context, filters models.CrowdDataFilters) ([]models.CrowdReading, error) {
	query := `SELECT zone_id, timestamp, people_count, density_level FROM crowd_data`
	args := []any{}
	if filters.ZoneID != "" {
		args = append(args, filters.ZoneID)
		query += fmt.Sprintf(` WHERE zone_id = $%d`, len(args))
	}
	query += ` ORDER BY timestamp DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crowd readings: %w", err)
	}
	defer rows.Close()
	return scanReadings(rows)
}

// LatestPerZone 每个区域最新一条读数
func (r *PostgresCrowdDataRepository) LatestPerZone(ctx context.Context) ([]models.CrowdReading, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (zone_id) zone_id, timestamp, people_count, density_level
		FROM crowd_data
		ORDER BY zone_id, timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest crowd readings: %w", err)
	}
	defer rows.Close()

	readings, err := scanReadings(rows)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Loaded latest readings from database", zap.Int("zones", len(readings)))
	return readings, nil
}

func scanReadings(rows *sql.Rows) ([]models.CrowdReading, error) {
	readings := make([]models.CrowdReading, 0)
	for rows.Next() {
		var (
			reading models.CrowdReading
			level   string
		)
		if err := rows.Scan(&reading.ZoneID, &reading.Timestamp, &reading.PeopleCount, &level); err != nil {
			return nil, fmt.Errorf("failed to scan crowd reading: %w", err)
		}
		reading.DensityLevel = models.DensityLevel(level)
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crowd readings: %w", err)
	}
	return readings, nil
}
