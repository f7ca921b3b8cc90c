package meter

import "github.com/quizpilot/quizpilot"

// NoopMeter is a meter that does nothing.
type NoopMeter struct{}

var _ quizpilot.Meter = (*NoopMeter)(nil)

func (m *NoopMeter) OnAttempt(quizpilot.AttemptEvent) {}
func (m *NoopMeter) OnTurn(quizpilot.TurnEvent)       {}
