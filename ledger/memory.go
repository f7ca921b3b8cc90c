// Package ledger provides UsageLedger backends: in-memory, atomic JSON
// file, and SQLite.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/quizpilot/quizpilot"
)

// Memory is an in-memory Ledger. State is lost when the process exits;
// useful for tests and offline-only sessions.
type Memory struct {
	mu     sync.Mutex
	topics map[string]quizpilot.TopicStat
	quota  quizpilot.QuotaState
	now    func() time.Time
}

var _ quizpilot.Ledger = (*Memory)(nil)

// MemoryOption configures a Memory ledger.
type MemoryOption func(*Memory)

// WithClock sets the time source. Tests use a fixed clock.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty in-memory ledger.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		topics: make(map[string]quizpilot.TopicStat),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Load(context.Context) quizpilot.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Memory) Record(_ context.Context, topicID string, origin quizpilot.Origin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordLocked(topicID, origin)
}

func (m *Memory) AddQuotaUsage(_ context.Context, units int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addQuotaUsageLocked(units)
}

func (m *Memory) RegisterRateLimit(_ context.Context, observedAt time.Time, diagnostic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerRateLimitLocked(observedAt, diagnostic)
}

func (m *Memory) RegisterError(_ context.Context, diagnostic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota.LastError = diagnostic
}

func (m *Memory) snapshotLocked() quizpilot.Snapshot {
	topics := make(map[string]quizpilot.TopicStat, len(m.topics))
	for id, st := range m.topics {
		topics[id] = st
	}
	return quizpilot.Snapshot{Topics: topics, Quota: m.quota}
}

func (m *Memory) recordLocked(topicID string, origin quizpilot.Origin) {
	st, ok := m.topics[topicID]
	if !ok {
		st = quizpilot.TopicStat{TopicID: topicID}
	}
	st.TotalCount++
	switch origin {
	case quizpilot.OriginRemote:
		st.RemoteCount++
	default:
		st.LocalCount++
	}
	st.LastUsedAt = m.now()
	m.topics[topicID] = st
}

func (m *Memory) addQuotaUsageLocked(units int64) {
	if units < 0 {
		return
	}
	m.quota.UsedUnits += units
}

// registerRateLimitLocked narrows the ceiling estimate from above: a limit
// hit is proof the true ceiling is at most the current usage, and only a
// hit at higher usage than the previous estimate carries new information.
func (m *Memory) registerRateLimitLocked(observedAt time.Time, diagnostic string) {
	m.quota.LastLimitHitAt = observedAt
	if diagnostic != "" {
		m.quota.LastError = diagnostic
	}
	if !m.quota.CeilingKnown || m.quota.UsedUnits > m.quota.Ceiling {
		m.quota.Ceiling = m.quota.UsedUnits
		m.quota.CeilingKnown = true
	}
}
