package ledger

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quizpilot/quizpilot"
)

// SQLite is a Ledger backed by a SQLite database. Each mutation runs as a
// single statement, so the store never holds a half-applied update.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ quizpilot.Ledger = (*SQLite)(nil)

// SQLiteOption configures a SQLite ledger.
type SQLiteOption func(*SQLite)

// WithSQLiteLogger sets the logger used for persistence diagnostics.
func WithSQLiteLogger(logger *slog.Logger) SQLiteOption {
	return func(s *SQLite) { s.logger = logger }
}

// WithSQLiteClock sets the time source for Record timestamps.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLite) { s.now = now }
}

// NewSQLite opens (or initializes) a SQLite-backed ledger at path.
func NewSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS topic_stats (
			topic_id TEXT PRIMARY KEY,
			total_count INTEGER NOT NULL DEFAULT 0,
			remote_count INTEGER NOT NULL DEFAULT 0,
			local_count INTEGER NOT NULL DEFAULT 0,
			last_used_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS quota_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			used_units INTEGER NOT NULL DEFAULT 0,
			estimated_ceiling INTEGER,
			last_limit_hit_at DATETIME,
			last_error TEXT
		)`,
		`INSERT OR IGNORE INTO quota_state (id) VALUES (1)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) quizpilot.Snapshot {
	snap := quizpilot.Snapshot{Topics: make(map[string]quizpilot.TopicStat)}

	rows, err := s.db.QueryContext(ctx,
		"SELECT topic_id, total_count, remote_count, local_count, last_used_at FROM topic_stats")
	if err != nil {
		s.logger.Warn("ledger: sqlite read failed, returning empty", "error", err)
		return snap
	}
	defer rows.Close()

	for rows.Next() {
		var st quizpilot.TopicStat
		var lastUsed sql.NullTime
		if err := rows.Scan(&st.TopicID, &st.TotalCount, &st.RemoteCount, &st.LocalCount, &lastUsed); err != nil {
			s.logger.Warn("ledger: sqlite scan failed", "error", err)
			continue
		}
		if lastUsed.Valid {
			st.LastUsedAt = lastUsed.Time
		}
		snap.Topics[st.TopicID] = st
	}

	var ceiling sql.NullInt64
	var limitHit sql.NullTime
	var lastErr sql.NullString
	err = s.db.QueryRowContext(ctx,
		"SELECT used_units, estimated_ceiling, last_limit_hit_at, last_error FROM quota_state WHERE id = 1").
		Scan(&snap.Quota.UsedUnits, &ceiling, &limitHit, &lastErr)
	if err != nil {
		s.logger.Warn("ledger: sqlite quota read failed", "error", err)
		return snap
	}
	if ceiling.Valid {
		snap.Quota.Ceiling = ceiling.Int64
		snap.Quota.CeilingKnown = true
	}
	if limitHit.Valid {
		snap.Quota.LastLimitHitAt = limitHit.Time
	}
	if lastErr.Valid {
		snap.Quota.LastError = lastErr.String
	}

	return snap
}

func (s *SQLite) Record(ctx context.Context, topicID string, origin quizpilot.Origin) {
	remote, local := 0, 1
	if origin == quizpilot.OriginRemote {
		remote, local = 1, 0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topic_stats (topic_id, total_count, remote_count, local_count, last_used_at)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT(topic_id) DO UPDATE SET
			total_count = total_count + 1,
			remote_count = remote_count + excluded.remote_count,
			local_count = local_count + excluded.local_count,
			last_used_at = excluded.last_used_at`,
		topicID, remote, local, s.now())
	if err != nil {
		s.logger.Warn("ledger: sqlite record failed", "topic", topicID, "error", err)
	}
}

func (s *SQLite) AddQuotaUsage(ctx context.Context, units int64) {
	if units < 0 {
		return
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE quota_state SET used_units = used_units + ? WHERE id = 1", units)
	if err != nil {
		s.logger.Warn("ledger: sqlite quota update failed", "error", err)
	}
}

func (s *SQLite) RegisterRateLimit(ctx context.Context, observedAt time.Time, diagnostic string) {
	// Ceiling only moves up: a limit hit at lower usage than the current
	// estimate carries no new information.
	_, err := s.db.ExecContext(ctx, `
		UPDATE quota_state SET
			last_limit_hit_at = ?,
			last_error = CASE WHEN ? != '' THEN ? ELSE last_error END,
			estimated_ceiling = CASE
				WHEN estimated_ceiling IS NULL OR used_units > estimated_ceiling
				THEN used_units ELSE estimated_ceiling END
		WHERE id = 1`,
		observedAt, diagnostic, diagnostic)
	if err != nil {
		s.logger.Warn("ledger: sqlite rate-limit update failed", "error", err)
	}
}

func (s *SQLite) RegisterError(ctx context.Context, diagnostic string) {
	_, err := s.db.ExecContext(ctx,
		"UPDATE quota_state SET last_error = ? WHERE id = 1", diagnostic)
	if err != nil {
		s.logger.Warn("ledger: sqlite error update failed", "error", err)
	}
}
