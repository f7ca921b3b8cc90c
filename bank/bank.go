// Package bank provides local question corpus implementations: a JSONL
// file bank and an in-memory static bank.
package bank

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/quizpilot/quizpilot"
)

// File is a question bank loaded from a JSONL file, one question per line.
// Corrupt lines are skipped with a logged warning; a load must never crash
// the session.
type File struct {
	questions []quizpilot.Question
	byTopic   map[string][]quizpilot.Question
	rng       *rand.Rand
}

var _ quizpilot.Bank = (*File)(nil)

// FileOption configures a File bank.
type FileOption func(*fileLoader)

type fileLoader struct {
	logger *slog.Logger
	rng    *rand.Rand
}

// WithLogger sets the logger used for skipped-line warnings.
func WithLogger(logger *slog.Logger) FileOption {
	return func(l *fileLoader) { l.logger = logger }
}

// WithRand sets the random source used for drawing. Tests use a seeded
// source.
func WithRand(rng *rand.Rand) FileOption {
	return func(l *fileLoader) { l.rng = rng }
}

// LoadFile reads a JSONL question bank. A missing file yields an empty
// bank, not an error.
func LoadFile(path string, opts ...FileOption) (*File, error) {
	loader := &fileLoader{}
	for _, opt := range opts {
		opt(loader)
	}
	if loader.logger == nil {
		loader.logger = slog.Default()
	}
	if loader.rng == nil {
		loader.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	b := &File{
		byTopic: make(map[string][]quizpilot.Question),
		rng:     loader.rng,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var q quizpilot.Question
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			loader.logger.Warn("bank: skipping corrupt line", "path", path, "line", lineNo, "error", err)
			continue
		}
		if q.TopicID == "" {
			loader.logger.Warn("bank: skipping question without topic", "path", path, "line", lineNo)
			continue
		}

		b.questions = append(b.questions, q)
		b.byTopic[q.TopicID] = append(b.byTopic[q.TopicID], q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *File) Draw(topicID string) (quizpilot.Question, bool) {
	pool := b.byTopic[topicID]
	if len(pool) == 0 {
		return quizpilot.Question{}, false
	}
	return pool[b.rng.Intn(len(pool))], true
}

func (b *File) DrawAny() (quizpilot.Question, bool) {
	if len(b.questions) == 0 {
		return quizpilot.Question{}, false
	}
	return b.questions[b.rng.Intn(len(b.questions))], true
}

func (b *File) Topics() []string {
	ids := make([]string, 0, len(b.byTopic))
	for id := range b.byTopic {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Size returns the number of questions in the bank.
func (b *File) Size() int {
	return len(b.questions)
}
