package quizpilot

// Bank is the static question corpus used when the remote service cannot
// produce a question.
type Bank interface {
	// Draw returns a random question for the topic, or false when the
	// topic has no local questions.
	Draw(topicID string) (Question, bool)

	// DrawAny returns a random question from the entire corpus, or false
	// when the corpus is empty.
	DrawAny() (Question, bool)

	// Topics returns the topic IDs that have at least one local question.
	Topics() []string
}
