package density

import (
	"testing"

	"crowdguard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Bands(t *testing.T) {
	tests := []struct {
		name     string
		people   int
		capacity int
		want     models.DensityLevel
	}{
		{"empty zone", 0, 300, models.DensityLow},
		{"exactly half", 150, 300, models.DensityLow},
		{"just above half", 151, 300, models.DensityMedium},
		{"exactly 80 percent", 240, 300, models.DensityMedium},
		{"just above 80 percent", 241, 300, models.DensityHigh},
		{"over capacity", 310, 300, models.DensityHigh},
		{"odd capacity half boundary", 2, 5, models.DensityLow},
		{"odd capacity above half", 3, 5, models.DensityMedium},
		{"odd capacity 80 percent", 4, 5, models.DensityMedium},
		{"odd capacity full", 5, 5, models.DensityHigh},
		{"capacity one", 1, 1, models.DensityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.people, tt.capacity))
		})
	}
}

func TestClassify_MatchesFloatRuleAwayFromBoundaries(t *testing.T) {
	for capacity := 1; capacity <= 120; capacity++ {
		for people := 0; people <= capacity*2; people++ {
			got := Classify(people, capacity)

			var want models.DensityLevel
			switch {
			case float64(people)*10 > float64(capacity)*8:
				want = models.DensityHigh
			case float64(people)*2 > float64(capacity):
				want = models.DensityMedium
			default:
				want = models.DensityLow
			}
			if got != want {
				t.Fatalf("Classify(%d, %d) = %s, want %s", people, capacity, got, want)
			}
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	first := Classify(250, 300)
	second := Classify(250, 300)
	assert.Equal(t, first, second)
	assert.Equal(t, models.DensityHigh, first)
}

func TestExceedsCapacity(t *testing.T) {
	assert.False(t, ExceedsCapacity(300, 300))
	assert.True(t, ExceedsCapacity(301, 300))
	assert.False(t, ExceedsCapacity(250, 300))
}
