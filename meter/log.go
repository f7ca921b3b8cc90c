// Package meter provides Meter implementations for observing quiz turns.
package meter

import (
	"log/slog"

	"github.com/quizpilot/quizpilot"
)

// LogMeter logs turn events using slog.
type LogMeter struct {
	Logger *slog.Logger
}

var _ quizpilot.Meter = (*LogMeter)(nil)

// NewLogMeter creates a LogMeter with the given logger.
// If logger is nil, slog.Default() is used.
func NewLogMeter(logger *slog.Logger) *LogMeter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMeter{Logger: logger}
}

func (m *LogMeter) OnAttempt(e quizpilot.AttemptEvent) {
	if e.Err == nil {
		m.Logger.Info("attempt",
			"turn", e.TurnID,
			"model", e.Model,
			"topic", e.TopicID,
			"attempt", e.Attempt,
			"duration_ms", e.Duration.Milliseconds(),
		)
		return
	}
	m.Logger.Warn("attempt_failed",
		"turn", e.TurnID,
		"model", e.Model,
		"topic", e.TopicID,
		"attempt", e.Attempt,
		"duration_ms", e.Duration.Milliseconds(),
		"rate_limited", quizpilot.IsRateLimited(e.Err),
		"error", e.Err,
	)
}

func (m *LogMeter) OnTurn(e quizpilot.TurnEvent) {
	if e.Err != nil {
		m.Logger.Error("turn_failed",
			"turn", e.TurnID,
			"topic", e.TopicID,
			"remote_allowed", e.RemoteAllowed,
			"duration_ms", e.Duration.Milliseconds(),
			"error", e.Err,
		)
		return
	}
	m.Logger.Info("turn",
		"turn", e.TurnID,
		"topic", e.TopicID,
		"origin", e.Origin,
		"model", e.Model,
		"remote_allowed", e.RemoteAllowed,
		"duration_ms", e.Duration.Milliseconds(),
	)
}
