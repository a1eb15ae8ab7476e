package models

import "time"

// DensityLevel 人群密度等级
type DensityLevel string

const (
	DensityLow    DensityLevel = "Low"
	DensityMedium DensityLevel = "Medium"
	DensityHigh   DensityLevel = "High"
)

// CrowdReading 人流读数（对应 crowd_data 表，只追加不修改）
type CrowdReading struct {
	ZoneID       string       `json:"zone_id" db:"zone_id" validate:"required"`
	Timestamp    time.Time    `json:"timestamp" db:"timestamp"`
	PeopleCount  int          `json:"people_count" db:"people_count" validate:"gte=0"`
	DensityLevel DensityLevel `json:"density_level" db:"density_level"`
}

// CrowdDataFilters 读数查询条件
type CrowdDataFilters struct {
	ZoneID string // 为空表示全部区域
	Limit  int
}
