// Package density 人群密度分级
package density

import "crowdguard/internal/models"

// Classify 根据人数和容量计算密度等级
//
//	people > 0.8*capacity -> High
//	people > 0.5*capacity -> Medium
//	otherwise             -> Low
//
// 比较使用整数运算，边界值（恰好等于 80% / 50%）落入较低一档。
func Classify(peopleCount, capacity int) models.DensityLevel {
	switch {
	case 10*peopleCount > 8*capacity:
		return models.DensityHigh
	case 2*peopleCount > capacity:
		return models.DensityMedium
	default:
		return models.DensityLow
	}
}

// ExceedsCapacity 人数是否超过容量（用于决定报警级别）
func ExceedsCapacity(peopleCount, capacity int) bool {
	return peopleCount > capacity
}
