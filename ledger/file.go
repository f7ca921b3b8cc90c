package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/quizpilot/quizpilot"
)

// File is a Ledger persisted as a single JSON document. Every mutation
// rewrites the whole document through a temp file and rename, so the store
// always holds either the old or the new complete state. A missing file
// means "initialize empty"; a corrupt file is logged and treated the same.
type File struct {
	path   string
	logger *slog.Logger
	mem    *Memory
}

var _ quizpilot.Ledger = (*File)(nil)

// FileOption configures a File ledger.
type FileOption func(*File)

// WithLogger sets the logger used for persistence diagnostics.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) FileOption {
	return func(f *File) { f.logger = logger }
}

// WithFileClock sets the time source for Record timestamps.
func WithFileClock(now func() time.Time) FileOption {
	return func(f *File) { f.mem.now = now }
}

// NewFile opens (or initializes) a file-backed ledger at path.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{
		path: path,
		mem:  NewMemory(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	f.restore()
	return f
}

// fileRecord is the on-disk shape. Nullable quota fields map to pointers
// so "never observed" round-trips as JSON null.
type fileRecord struct {
	Usage struct {
		TopicStats map[string]quizpilot.TopicStat `json:"topic_stats"`
		QuotaState fileQuotaState                 `json:"quota_state"`
	} `json:"usage"`
}

type fileQuotaState struct {
	UsedUnits        int64      `json:"used_units"`
	EstimatedCeiling *int64     `json:"estimated_ceiling"`
	LastLimitHitAt   *time.Time `json:"last_limit_hit_at"`
	LastError        *string    `json:"last_error"`
}

func (f *File) restore() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("ledger: read failed, starting empty", "path", f.path, "error", err)
		}
		return
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		f.logger.Warn("ledger: corrupt store, starting empty", "path", f.path, "error", err)
		return
	}

	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()

	for id, st := range rec.Usage.TopicStats {
		if st.TopicID == "" {
			st.TopicID = id
		}
		f.mem.topics[id] = st
	}

	qs := rec.Usage.QuotaState
	f.mem.quota.UsedUnits = qs.UsedUnits
	if qs.EstimatedCeiling != nil {
		f.mem.quota.Ceiling = *qs.EstimatedCeiling
		f.mem.quota.CeilingKnown = true
	}
	if qs.LastLimitHitAt != nil {
		f.mem.quota.LastLimitHitAt = *qs.LastLimitHitAt
	}
	if qs.LastError != nil {
		f.mem.quota.LastError = *qs.LastError
	}
}

func (f *File) Load(ctx context.Context) quizpilot.Snapshot {
	return f.mem.Load(ctx)
}

func (f *File) Record(_ context.Context, topicID string, origin quizpilot.Origin) {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()

	f.mem.recordLocked(topicID, origin)
	f.persistLocked()
}

func (f *File) AddQuotaUsage(_ context.Context, units int64) {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()

	f.mem.addQuotaUsageLocked(units)
	f.persistLocked()
}

func (f *File) RegisterRateLimit(_ context.Context, observedAt time.Time, diagnostic string) {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()

	f.mem.registerRateLimitLocked(observedAt, diagnostic)
	f.persistLocked()
}

func (f *File) RegisterError(_ context.Context, diagnostic string) {
	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()

	f.mem.quota.LastError = diagnostic
	f.persistLocked()
}

// persistLocked writes the full state atomically. Failures are logged; the
// in-memory state stays authoritative for the rest of the process.
func (f *File) persistLocked() {
	var rec fileRecord
	rec.Usage.TopicStats = f.mem.topics

	q := f.mem.quota
	rec.Usage.QuotaState.UsedUnits = q.UsedUnits
	if q.CeilingKnown {
		ceiling := q.Ceiling
		rec.Usage.QuotaState.EstimatedCeiling = &ceiling
	}
	if !q.LastLimitHitAt.IsZero() {
		at := q.LastLimitHitAt
		rec.Usage.QuotaState.LastLimitHitAt = &at
	}
	if q.LastError != "" {
		msg := q.LastError
		rec.Usage.QuotaState.LastError = &msg
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		f.logger.Warn("ledger: marshal failed", "path", f.path, "error", err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ledger-*")
	if err != nil {
		f.logger.Warn("ledger: write failed", "path", f.path, "error", err)
		return
	}

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		f.logger.Warn("ledger: write failed", "path", f.path, "error", err)
		return
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		f.logger.Warn("ledger: rename failed", "path", f.path, "error", err)
	}
}
