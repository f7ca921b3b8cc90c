package quizpilot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionOptionCount is the number of answer options every question
// carries.
const QuestionOptionCount = 4

// Validate checks that the question has the required shape: non-empty
// text, exactly four options, a valid correct-option index, and a
// non-empty explanation.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty question text", ErrMalformedQuestion)
	}
	if len(q.Options) != QuestionOptionCount {
		return fmt.Errorf("%w: got %d options, want %d", ErrMalformedQuestion, len(q.Options), QuestionOptionCount)
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: empty option %d", ErrMalformedQuestion, i)
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct answer index %d out of range", ErrMalformedQuestion, q.CorrectAnswer)
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return fmt.Errorf("%w: empty explanation", ErrMalformedQuestion)
	}
	return nil
}

// ParseQuestionJSON decodes a question from raw model output. Models often
// wrap the JSON object in markdown code fences or surrounding prose, so
// everything outside the outermost braces is stripped first.
func ParseQuestionJSON(raw string) (Question, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Question{}, fmt.Errorf("%w: no JSON object in output", ErrMalformedQuestion)
	}

	var q Question
	if err := json.Unmarshal([]byte(raw[start:end+1]), &q); err != nil {
		return Question{}, fmt.Errorf("%w: %v", ErrMalformedQuestion, err)
	}
	return q, nil
}

// BuildPrompt renders the generation prompt for one topic. The prompt
// demands a single strict JSON object so that ParseQuestionJSON can decode
// the reply.
func BuildPrompt(topic Topic) string {
	var sb strings.Builder

	sb.WriteString("Generate one multiple choice exam question.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n", topic.Label)
	if topic.Group != "" {
		fmt.Fprintf(&sb, "Topic group: %s\n", topic.Group)
	}
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Exactly 4 answer options\n")
	sb.WriteString("- The correct answer should be non-obvious but clearly correct\n")
	sb.WriteString("- Incorrect options should be plausible but clearly wrong\n")
	sb.WriteString("- Provide a brief explanation for why the correct answer is right\n")
	sb.WriteString("\nReply with a single JSON object and nothing else:\n")
	sb.WriteString(`{"text": "...", "options": ["...", "...", "...", "..."], "correct_answer": 0, "explanation": "..."}`)
	sb.WriteString("\n")

	return sb.String()
}
