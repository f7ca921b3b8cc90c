package bank

import (
	"math/rand"
	"sort"
	"time"

	"github.com/quizpilot/quizpilot"
)

// Static is an in-memory question bank built from a fixed slice. Questions
// without a topic ID are dropped.
type Static struct {
	questions []quizpilot.Question
	byTopic   map[string][]quizpilot.Question
	rng       *rand.Rand
}

var _ quizpilot.Bank = (*Static)(nil)

// NewStatic builds a bank from the given questions.
func NewStatic(questions []quizpilot.Question, opts ...FileOption) *Static {
	loader := &fileLoader{}
	for _, opt := range opts {
		opt(loader)
	}
	if loader.rng == nil {
		loader.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Static{
		byTopic: make(map[string][]quizpilot.Question),
		rng:     loader.rng,
	}
	for _, q := range questions {
		if q.TopicID == "" {
			continue
		}
		s.questions = append(s.questions, q)
		s.byTopic[q.TopicID] = append(s.byTopic[q.TopicID], q)
	}
	return s
}

func (s *Static) Draw(topicID string) (quizpilot.Question, bool) {
	pool := s.byTopic[topicID]
	if len(pool) == 0 {
		return quizpilot.Question{}, false
	}
	return pool[s.rng.Intn(len(pool))], true
}

func (s *Static) DrawAny() (quizpilot.Question, bool) {
	if len(s.questions) == 0 {
		return quizpilot.Question{}, false
	}
	return s.questions[s.rng.Intn(len(s.questions))], true
}

func (s *Static) Topics() []string {
	ids := make([]string, 0, len(s.byTopic))
	for id := range s.byTopic {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
