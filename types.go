package quizpilot

// Topic identifies one syllabus chapter questions are drawn from.
type Topic struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Group string `yaml:"group" json:"group"`
}

// Origin describes where a question came from.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// Question is a single four-option multiple choice question.
type Question struct {
	ID            string   `json:"id"`
	TopicID       string   `json:"topic_id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"` // 0-based index
	Explanation   string   `json:"explanation"`
}

// TurnRequest carries the caller's preferences for one quiz turn.
type TurnRequest struct {
	// PreferredModel is tried first if the source currently lists it.
	PreferredModel string

	// NearLimitThreshold overrides the controller's configured threshold
	// when > 0. See Estimator.MayAttemptRemote.
	NearLimitThreshold float64
}

// TurnResult is the outcome of one quiz turn. It is not persisted; the
// caller records it through Ledger.Record.
type TurnResult struct {
	TopicID   string
	Origin    Origin
	ModelUsed string // empty for local questions
	Question  Question
}
