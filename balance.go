package quizpilot

import (
	"math/rand"
	"time"
)

// Balancer selects the next topic so that coverage stays balanced over
// time: least-used topics first, avoiding an immediate repeat when an
// equally under-served alternative exists.
type Balancer struct {
	rng *rand.Rand
}

// BalancerOption configures a Balancer.
type BalancerOption func(*Balancer)

// WithRand sets the random source used for tie-breaking. Tests use a
// seeded source for determinism.
func WithRand(rng *rand.Rand) BalancerOption {
	return func(b *Balancer) { b.rng = rng }
}

// NewBalancer creates a Balancer.
func NewBalancer(opts ...BalancerOption) *Balancer {
	b := &Balancer{}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b
}

// Choose picks the next topic from available, using the usage counts in the
// snapshot. Topics never seen count as zero and are therefore always most
// eligible. Among the least-used topics, lastTopic is skipped when
// avoidRepeat is set and an alternative exists; if lastTopic is the only
// least-used topic it is still returned, since fairness outranks repeat
// avoidance. Remaining ties break by uniform random choice.
//
// The second return is false when available is empty; callers must have
// their own fallback (for example, drawing from the unrestricted pool).
func (b *Balancer) Choose(snap Snapshot, available []string, lastTopic string, avoidRepeat bool) (string, bool) {
	if len(available) == 0 {
		return "", false
	}

	var minCount int64 = -1
	for _, id := range available {
		n := snap.Topic(id).TotalCount
		if minCount < 0 || n < minCount {
			minCount = n
		}
	}

	leastUsed := make([]string, 0, len(available))
	for _, id := range available {
		if snap.Topic(id).TotalCount == minCount {
			leastUsed = append(leastUsed, id)
		}
	}

	if avoidRepeat && lastTopic != "" && len(leastUsed) > 1 {
		survivors := leastUsed[:0]
		for _, id := range leastUsed {
			if id != lastTopic {
				survivors = append(survivors, id)
			}
		}
		leastUsed = survivors
	}

	return leastUsed[b.rng.Intn(len(leastUsed))], true
}
