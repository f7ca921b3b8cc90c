package quizpilot

import "context"

// Source is the interface remote question generators must implement.
// Adapters map their vendor's transport failures onto the sentinel errors:
// a quota signal becomes ErrRateLimited, anything else stays an ordinary
// error and the controller advances to the next candidate.
type Source interface {
	// ListCandidates returns the model identifiers currently offered by
	// the service, in the service's declaration order. Identifiers absent
	// from this list are unusable for the turn.
	ListCandidates(ctx context.Context) ([]string, error)

	// Generate asks one model for a question about the topic. The returned
	// question is unvalidated; the controller checks its shape.
	Generate(ctx context.Context, model string, topic Topic) (Question, error)
}
