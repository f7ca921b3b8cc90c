package quizpilot

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrRateLimited       = errors.New("quizpilot: rate limited by remote service")
	ErrMalformedQuestion = errors.New("quizpilot: malformed question payload")
	ErrSourceUnavailable = errors.New("quizpilot: remote source unavailable")
	ErrNoModels          = errors.New("quizpilot: no remote models listed")
	ErrNoQuestion        = errors.New("quizpilot: no question available")
)

// TurnError wraps an error with the context of the remote attempt that
// produced it.
type TurnError struct {
	Err     error
	Model   string
	TopicID string
	Attempt int
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("quizpilot: model=%s topic=%s attempt=%d: %v",
		e.Model, e.TopicID, e.Attempt, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether the error carries a quota-informative
// rate-limit signal. Such an error ends all remote attempts for the turn.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
