package quizpilot_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	qp "github.com/quizpilot/quizpilot"
	"github.com/quizpilot/quizpilot/bank"
	"github.com/quizpilot/quizpilot/ledger"
	"github.com/quizpilot/quizpilot/meter"
	"github.com/quizpilot/quizpilot/source/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTopics() []qp.Topic {
	return []qp.Topic{
		{ID: "T1", Label: "Neural Networks", Group: "Deep Learning"},
		{ID: "T2", Label: "Probability", Group: "Math"},
	}
}

func testBank(topicIDs ...string) *bank.Static {
	var questions []qp.Question
	for i, id := range topicIDs {
		questions = append(questions, qp.Question{
			ID:            fmt.Sprintf("local-%d", i),
			TopicID:       id,
			Text:          "What does backpropagation compute?",
			Options:       []string{"Gradients", "Eigenvalues", "Medians", "Hashes"},
			CorrectAnswer: 0,
			Explanation:   "It computes gradients of the loss with respect to the weights.",
		})
	}
	return bank.NewStatic(questions, bank.WithRand(rand.New(rand.NewSource(1))))
}

func newTestController(t *testing.T, src qp.Source, b qp.Bank, led qp.Ledger) *qp.Controller {
	t.Helper()
	c, err := qp.NewController(src, b, led, testTopics(),
		qp.WithMeter(&meter.NoopMeter{}),
		qp.WithBalancer(qp.NewBalancer(qp.WithRand(rand.New(rand.NewSource(1))))),
	)
	require.NoError(t, err)
	return c
}

// Test 1: Remote success returns an origin=remote result and accrues usage
func TestTurn_RemoteSuccess(t *testing.T) {
	src := mock.New(mock.WithModels("mock-1.0-flash"))
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, qp.OriginRemote, result.Origin)
	assert.Equal(t, "mock-1.0-flash", result.ModelUsed)
	assert.NoError(t, result.Question.Validate())
	assert.NotEmpty(t, result.Question.ID)

	snap := led.Load(context.Background())
	assert.Greater(t, snap.Quota.UsedUnits, int64(0))
	assert.False(t, snap.Quota.CeilingKnown)
}

// Test 2: A transient failure advances to the next candidate
func TestTurn_TransientFailureFallsToNextCandidate(t *testing.T) {
	src := mock.New(
		mock.WithModels("mock-2.0-pro", "mock-1.0-flash"),
		mock.WithModelError("mock-2.0-pro", errors.New("connection reset")),
	)
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, qp.OriginRemote, result.Origin)
	assert.Equal(t, "mock-1.0-flash", result.ModelUsed)

	snap := led.Load(context.Background())
	assert.Contains(t, snap.Quota.LastError, "connection reset")
	assert.False(t, snap.Quota.CeilingKnown)
}

// Test 3: A rate limit on one candidate abandons remote for the whole turn
func TestTurn_RateLimitShortCircuits(t *testing.T) {
	src := mock.New(
		mock.WithModels("mock-2.0-pro", "mock-1.0-flash"),
		mock.WithModelError("mock-2.0-pro", fmt.Errorf("%w: quota exhausted", qp.ErrRateLimited)),
	)
	led := ledger.NewMemory()
	led.AddQuotaUsage(context.Background(), 500)

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, qp.OriginLocal, result.Origin)
	assert.Empty(t, result.ModelUsed)

	// The second candidate was never tried.
	assert.Equal(t, 0, src.Calls("mock-1.0-flash"))

	snap := led.Load(context.Background())
	assert.True(t, snap.Quota.CeilingKnown)
	assert.Equal(t, int64(500), snap.Quota.Ceiling)
	assert.False(t, snap.Quota.LastLimitHitAt.IsZero())
}

// Test 4: A closed quota gate skips remote entirely
func TestTurn_GateClosedSkipsRemote(t *testing.T) {
	src := mock.New(mock.WithModels("mock-1.0-flash"))
	led := ledger.NewMemory()

	// Learn a ceiling of 1000, fully used: remaining ratio is zero.
	led.AddQuotaUsage(context.Background(), 1000)
	led.RegisterRateLimit(context.Background(), time.Now(), "quota exhausted")

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, qp.OriginLocal, result.Origin)
	assert.Equal(t, 0, src.TotalCalls())
}

// Test 5: Malformed remote output counts as a failure, not a question
func TestTurn_MalformedQuestionAdvances(t *testing.T) {
	src := mock.New(
		mock.WithModels("mock-2.0-pro", "mock-1.0-flash"),
		mock.WithGenerateFunc(func(model string, topic qp.Topic) (qp.Question, error) {
			if model == "mock-2.0-pro" {
				// Three options: fails shape validation.
				return qp.Question{
					Text:          "Broken?",
					Options:       []string{"a", "b", "c"},
					CorrectAnswer: 0,
					Explanation:   "broken",
				}, nil
			}
			return qp.Question{
				Text:          "Fine?",
				Options:       []string{"a", "b", "c", "d"},
				CorrectAnswer: 1,
				Explanation:   "fine",
			}, nil
		}),
	)
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, "mock-1.0-flash", result.ModelUsed)
	assert.Equal(t, "Fine?", result.Question.Text)
}

// Test 6: Preferred model is tried first when the source lists it
func TestTurn_PreferredModelFirst(t *testing.T) {
	src := mock.New(mock.WithModels("mock-2.0-pro", "mock-1.0-flash"))
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{PreferredModel: "mock-1.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "mock-1.0-flash", result.ModelUsed)
	assert.Equal(t, 0, src.Calls("mock-2.0-pro"))
}

// Test 7: Local fallback draws from the whole corpus when the chosen topic
// has no local questions
func TestTurn_FallbackDrawAny(t *testing.T) {
	// No remote source; bank only covers T2 while both topics are
	// configured.
	led := ledger.NewMemory()

	c := newTestController(t, nil, testBank("T2"), led)

	// Drive turns until the balancer lands on T1 at least once; with both
	// counts level the first turn may pick either topic.
	sawFallback := false
	for i := 0; i < 4; i++ {
		result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
		require.NoError(t, err)
		assert.Equal(t, qp.OriginLocal, result.Origin)
		assert.Equal(t, "T2", result.TopicID)
		if result.Question.TopicID == "T2" {
			sawFallback = true
		}
	}
	assert.True(t, sawFallback)
}

// Test 8: Remote disabled and empty corpus is the one fatal outcome
func TestTurn_NoQuestionAnywhere(t *testing.T) {
	led := ledger.NewMemory()

	c := newTestController(t, nil, bank.NewStatic(nil), led)

	_, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	assert.ErrorIs(t, err, qp.ErrNoQuestion)
}

// Test 9: Recording a remote turn bumps the right counters
func TestTurn_RecordUpdatesLedger(t *testing.T) {
	src := mock.New(mock.WithModels("mock-1.0-flash"))
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	result, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
	require.NoError(t, err)

	led.Record(context.Background(), result.TopicID, result.Origin)

	st := led.Load(context.Background()).Topic(result.TopicID)
	assert.Equal(t, int64(1), st.TotalCount)
	assert.Equal(t, int64(1), st.RemoteCount)
	assert.Equal(t, int64(0), st.LocalCount)
	assert.False(t, st.LastUsedAt.IsZero())
}

// Test 10: A cancelled context stops the turn without a result
func TestTurn_Cancellation(t *testing.T) {
	src := mock.New(mock.WithModels("mock-1.0-flash"))
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.NextQuestion(ctx, qp.TurnRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

// Test 11: Session history accumulates turn outcomes in order
func TestController_History(t *testing.T) {
	src := mock.New(mock.WithModels("mock-1.0-flash"))
	led := ledger.NewMemory()

	c := newTestController(t, src, testBank("T1", "T2"), led)

	for i := 0; i < 3; i++ {
		_, err := c.NextQuestion(context.Background(), qp.TurnRequest{})
		require.NoError(t, err)
	}

	history := c.History()
	require.Len(t, history, 3)
	for _, turn := range history {
		assert.Equal(t, qp.OriginRemote, turn.Origin)
	}
}
