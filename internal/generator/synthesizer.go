package generator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"crowdguard/internal/density"
	"crowdguard/internal/models"
)

// MinPeopleCount 模拟读数的最小人数
const MinPeopleCount = 30

// OvercrowdFactor 模拟读数上限 = round(capacity * OvercrowdFactor)，允许超员
const OvercrowdFactor = 1.1

// ErrCapacityTooSmall 区域容量太小，round(capacity*1.1) < MinPeopleCount
var ErrCapacityTooSmall = errors.New("zone capacity too small for simulated readings")

// RandomSource 返回 [0, n) 内的随机整数；*rand.Rand (math/rand/v2) 满足该接口
type RandomSource interface {
	IntN(n int) int
}

// Synthesizer 模拟人流读数
type Synthesizer struct {
	now func() time.Time
	rng RandomSource
}

// NewSynthesizer 创建读数模拟器
func NewSynthesizer(now func() time.Time, rng RandomSource) *Synthesizer {
	return &Synthesizer{now: now, rng: rng}
}

// UpperBound 区域的模拟人数上限
func UpperBound(capacity int) int {
	return int(math.Round(float64(capacity) * OvercrowdFactor))
}

// Synthesize 为区域生成一条读数：人数均匀分布在 [30, round(capacity*1.1)]
func (s *Synthesizer) Synthesize(zone models.Zone) (*models.CrowdReading, error) {
	upper := UpperBound(zone.Capacity)
	if upper < MinPeopleCount {
		return nil, fmt.Errorf("zone %s (capacity %d): %w", zone.ZoneID, zone.Capacity, ErrCapacityTooSmall)
	}

	peopleCount := MinPeopleCount + s.rng.IntN(upper-MinPeopleCount+1)
	return &models.CrowdReading{
		ZoneID:       zone.ZoneID,
		Timestamp:    s.now(),
		PeopleCount:  peopleCount,
		DensityLevel: density.Classify(peopleCount, zone.Capacity),
	}, nil
}
