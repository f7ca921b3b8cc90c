package quizpilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test 1: Unknown quota is optimistic regardless of usage
func TestEstimator_UnknownQuotaPermitsRemote(t *testing.T) {
	e := Estimator{}
	q := QuotaState{UsedUnits: 1000}

	_, known := e.RemainingRatio(q)
	assert.False(t, known)
	assert.True(t, e.MayAttemptRemote(q, 0.9))
}

// Test 2: Remaining ratio decreases as usage grows with a fixed ceiling
func TestEstimator_RatioDecreasesWithUsage(t *testing.T) {
	e := Estimator{}

	prev := 2.0
	for _, used := range []int64{0, 100, 500, 900} {
		q := QuotaState{UsedUnits: used, Ceiling: 1000, CeilingKnown: true}
		ratio, known := e.RemainingRatio(q)
		assert.True(t, known)
		assert.GreaterOrEqual(t, ratio, 0.0)
		assert.LessOrEqual(t, ratio, 1.0)
		assert.Less(t, ratio, prev)
		prev = ratio
	}
}

// Test 3: Ratio clamps to zero past the ceiling
func TestEstimator_RatioClampedPastCeiling(t *testing.T) {
	e := Estimator{}
	q := QuotaState{UsedUnits: 1500, Ceiling: 1000, CeilingKnown: true}

	ratio, known := e.RemainingRatio(q)
	assert.True(t, known)
	assert.Equal(t, 0.0, ratio)
}

// Test 4: Gate closes when remaining drops below 1-threshold
func TestEstimator_GateClosesNearLimit(t *testing.T) {
	e := Estimator{}

	// 50% used: well clear of a 0.9 threshold.
	q := QuotaState{UsedUnits: 500, Ceiling: 1000, CeilingKnown: true}
	assert.True(t, e.MayAttemptRemote(q, 0.9))

	// 95% used: inside the near-limit band.
	q.UsedUnits = 950
	assert.False(t, e.MayAttemptRemote(q, 0.9))

	// Exactly at the threshold boundary: remaining == 1-threshold, not >.
	q.UsedUnits = 900
	assert.False(t, e.MayAttemptRemote(q, 0.9))
}

// Test 5: Zero threshold falls back to the default
func TestEstimator_DefaultThreshold(t *testing.T) {
	e := Estimator{}
	q := QuotaState{UsedUnits: 950, Ceiling: 1000, CeilingKnown: true}

	assert.False(t, e.MayAttemptRemote(q, 0))
}

// Test 6: Safety margin scales the effective ceiling down
func TestEstimator_SafetyMargin(t *testing.T) {
	plain := Estimator{}
	scaled := Estimator{SafetyMargin: 0.7}

	// 650/1000 used: fine against the raw ceiling, near-limit against
	// the scaled one (effective ceiling 700).
	q := QuotaState{UsedUnits: 650, Ceiling: 1000, CeilingKnown: true}
	assert.True(t, plain.MayAttemptRemote(q, 0.9))
	assert.False(t, scaled.MayAttemptRemote(q, 0.9))
}

// Test 7: A ceiling learned at zero usage yields no usable ratio
func TestEstimator_ZeroCeilingIsUnknown(t *testing.T) {
	e := Estimator{}
	q := QuotaState{UsedUnits: 0, Ceiling: 0, CeilingKnown: true}

	_, known := e.RemainingRatio(q)
	assert.False(t, known)
	assert.True(t, e.MayAttemptRemote(q, 0.9))
}
