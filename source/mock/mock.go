// Package mock provides a question source for testing.
package mock

import (
	"context"
	"sync"

	"github.com/quizpilot/quizpilot"
)

// Source is a mock question source for testing.
type Source struct {
	mu           sync.Mutex
	models       []string
	listErr      error
	modelErrs    map[string]error
	question     quizpilot.Question
	generateFunc func(model string, topic quizpilot.Topic) (quizpilot.Question, error)
	calls        map[string]int
}

var _ quizpilot.Source = (*Source)(nil)

// Option configures a mock Source.
type Option func(*Source)

// WithModels sets the listed models.
func WithModels(models ...string) Option {
	return func(s *Source) { s.models = models }
}

// WithListError makes ListCandidates return this error.
func WithListError(err error) Option {
	return func(s *Source) { s.listErr = err }
}

// WithModelError makes Generate fail for one model.
func WithModelError(model string, err error) Option {
	return func(s *Source) { s.modelErrs[model] = err }
}

// WithQuestion sets the question returned on success.
func WithQuestion(q quizpilot.Question) Option {
	return func(s *Source) { s.question = q }
}

// WithGenerateFunc sets a custom generate function.
func WithGenerateFunc(fn func(model string, topic quizpilot.Topic) (quizpilot.Question, error)) Option {
	return func(s *Source) { s.generateFunc = fn }
}

// New creates a mock source with the given options.
func New(opts ...Option) *Source {
	s := &Source{
		models:    []string{"mock-1.0-flash"},
		modelErrs: make(map[string]error),
		calls:     make(map[string]int),
		question: quizpilot.Question{
			Text:          "What is the capital of France?",
			Options:       []string{"Paris", "Lyon", "Marseille", "Nice"},
			CorrectAnswer: 0,
			Explanation:   "Paris has been the capital of France since 987.",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) ListCandidates(context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]string, len(s.models))
	copy(out, s.models)
	return out, nil
}

func (s *Source) Generate(_ context.Context, model string, topic quizpilot.Topic) (quizpilot.Question, error) {
	s.mu.Lock()
	s.calls[model]++
	s.mu.Unlock()

	if err, ok := s.modelErrs[model]; ok {
		return quizpilot.Question{}, err
	}
	if s.generateFunc != nil {
		return s.generateFunc(model, topic)
	}
	return s.question, nil
}

// Calls returns how many times Generate was invoked for a model.
func (s *Source) Calls(model string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[model]
}

// TotalCalls returns the total number of Generate invocations.
func (s *Source) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}
