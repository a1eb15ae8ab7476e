package models

// Zone 监控区域（对应 zones 表）
type Zone struct {
	ZoneID       string `json:"zone_id" db:"zone_id" validate:"required"`
	LocationName string `json:"location_name" db:"location_name" validate:"required"`
	Capacity     int    `json:"capacity" db:"capacity" validate:"gt=0"` // 最大容纳人数
}

// ZonePatch 区域可修改字段（PUT /zones/{id}）
// nil 表示不修改
type ZonePatch struct {
	LocationName *string `json:"location_name,omitempty"`
	Capacity     *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}

// IsEmpty 是否没有任何待修改字段
func (p ZonePatch) IsEmpty() bool {
	return p.LocationName == nil && p.Capacity == nil
}

// Apply 把 patch 应用到 zone 上，返回是否有实际变化
func (p ZonePatch) Apply(z *Zone) bool {
	changed := false
	if p.LocationName != nil && *p.LocationName != z.LocationName {
		z.LocationName = *p.LocationName
		changed = true
	}
	if p.Capacity != nil && *p.Capacity != z.Capacity {
		z.Capacity = *p.Capacity
		changed = true
	}
	return changed
}
