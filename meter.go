package quizpilot

import "time"

// Meter observes turn events for monitoring/logging.
type Meter interface {
	// OnAttempt is called after each remote candidate attempt.
	OnAttempt(event AttemptEvent)

	// OnTurn is called when a turn completes, successfully or not.
	OnTurn(event TurnEvent)
}

// AttemptEvent describes one remote candidate attempt within a turn.
type AttemptEvent struct {
	TurnID   string
	Model    string
	TopicID  string
	Attempt  int
	Duration time.Duration
	Err      error // nil on success
}

// TurnEvent describes a completed turn.
type TurnEvent struct {
	TurnID         string
	TopicID        string
	Origin         Origin
	Model          string
	RemoteAllowed  bool // gate decision at turn start
	RemoteAttempts int
	Duration       time.Duration
	Err            error // nil unless the turn produced no question
}
