package quizpilot

// DefaultNearLimitThreshold is the used/ceiling ratio at which remote
// attempts are proactively suppressed.
const DefaultNearLimitThreshold = 0.9

// Estimator decides whether a remote attempt is advisable given the learned
// quota state. It is a pure view over a QuotaState snapshot; it never
// mutates anything.
type Estimator struct {
	// SafetyMargin, when in (0,1), scales the effective ceiling down as an
	// extra buffer below the observed limit. Zero disables it.
	SafetyMargin float64
}

// effectiveCeiling applies the optional safety margin to a learned ceiling.
func (e Estimator) effectiveCeiling(q QuotaState) int64 {
	if e.SafetyMargin > 0 && e.SafetyMargin < 1 {
		return int64(float64(q.Ceiling) * e.SafetyMargin)
	}
	return q.Ceiling
}

// RemainingRatio returns (ceiling-used)/ceiling clamped to [0,1]. The
// second return is false while no ceiling has been learned; until then the
// quota picture is unknown and callers should be optimistic.
func (e Estimator) RemainingRatio(q QuotaState) (float64, bool) {
	if !q.CeilingKnown {
		return 0, false
	}
	ceiling := e.effectiveCeiling(q)
	if ceiling <= 0 {
		// A limit observed at zero usage gives no usable ratio.
		return 0, false
	}
	remaining := float64(ceiling-q.UsedUnits) / float64(ceiling)
	if remaining < 0 {
		return 0, true
	}
	if remaining > 1 {
		return 1, true
	}
	return remaining, true
}

// MayAttemptRemote reports whether a remote attempt is worth making.
// Unknown quota permits the attempt; a known quota permits it while the
// used fraction stays below threshold. threshold <= 0 falls back to
// DefaultNearLimitThreshold.
func (e Estimator) MayAttemptRemote(q QuotaState, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultNearLimitThreshold
	}
	ratio, known := e.RemainingRatio(q)
	if !known {
		return true
	}
	return 1-ratio < threshold
}
