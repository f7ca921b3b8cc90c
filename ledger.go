package quizpilot

import (
	"context"
	"time"
)

// Ledger is the durable store of per-topic usage counters and the learned
// quota state. It is the only component that mutates persisted state; every
// other component works on a Snapshot taken at turn start.
//
// Ledger methods never fail the caller: backends keep the in-memory state
// authoritative and log persistence failures as diagnostics. Lost updates on
// crash are acceptable; this is best-effort usage accounting, not a ledger
// of record.
type Ledger interface {
	// Load returns the most recently persisted state. A missing or corrupt
	// store yields a fresh empty snapshot, never an error.
	Load(ctx context.Context) Snapshot

	// Record increments the total and origin-specific counters for a topic
	// and stamps LastUsedAt. The write is atomic: the store always holds
	// either the old or the new complete state.
	Record(ctx context.Context, topicID string, origin Origin)

	// AddQuotaUsage adds a non-negative amount of approximate remote cost
	// to the usage accumulator. Negative amounts are ignored.
	AddQuotaUsage(ctx context.Context, units int64)

	// RegisterRateLimit records a rate-limit observation. When no ceiling
	// is known, or current usage exceeds the previous estimate, the
	// estimated ceiling is raised to the current usage. The ceiling is
	// never lowered: only a limit hit at higher usage carries new
	// information.
	RegisterRateLimit(ctx context.Context, observedAt time.Time, diagnostic string)

	// RegisterError records a diagnostic for a transient or unknown fault.
	// It never touches the ceiling, since such faults carry no quota
	// information.
	RegisterError(ctx context.Context, diagnostic string)
}

// TopicStat holds the usage counters for one topic.
// Invariant: TotalCount == RemoteCount + LocalCount.
type TopicStat struct {
	TopicID     string    `json:"topic_id"`
	TotalCount  int64     `json:"total_count"`
	RemoteCount int64     `json:"remote_count"`
	LocalCount  int64     `json:"local_count"`
	LastUsedAt  time.Time `json:"last_used_at"`
}

// QuotaState is the learned picture of the remote service's undocumented
// quota. The ceiling starts unknown and is only ever narrowed from above by
// rate-limit observations.
type QuotaState struct {
	UsedUnits      int64     `json:"used_units"`
	Ceiling        int64     `json:"estimated_ceiling"`
	CeilingKnown   bool      `json:"ceiling_known"`
	LastLimitHitAt time.Time `json:"last_limit_hit_at"`
	LastError      string    `json:"last_error"`
}

// Snapshot is an immutable copy of the ledger state at one point in time.
type Snapshot struct {
	Topics map[string]TopicStat
	Quota  QuotaState
}

// Topic returns the stats for a topic. Topics never seen have zero counts.
func (s Snapshot) Topic(topicID string) TopicStat {
	if st, ok := s.Topics[topicID]; ok {
		return st
	}
	return TopicStat{TopicID: topicID}
}
