package quizpilot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Controller orchestrates one quiz turn: it gates on the learned quota,
// picks a topic, walks the ranked remote candidates, and falls back to the
// local corpus. One Controller serves one logical quiz session; each turn
// runs its state machine to completion before returning.
type Controller struct {
	topics    []Topic
	source    Source // nil disables remote generation
	bank      Bank
	ledger    Ledger
	balancer  *Balancer
	estimator Estimator
	meter     Meter
	threshold float64

	mu        sync.Mutex
	lastTopic string
	history   []TurnResult
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMeter sets the meter.
func WithMeter(m Meter) ControllerOption {
	return func(c *Controller) { c.meter = m }
}

// WithBalancer sets the topic balancer.
func WithBalancer(b *Balancer) ControllerOption {
	return func(c *Controller) { c.balancer = b }
}

// WithEstimator sets the quota estimator.
func WithEstimator(e Estimator) ControllerOption {
	return func(c *Controller) { c.estimator = e }
}

// WithNearLimitThreshold sets the default near-limit threshold used when a
// TurnRequest does not override it.
func WithNearLimitThreshold(t float64) ControllerOption {
	return func(c *Controller) { c.threshold = t }
}

// NewController creates a Controller. source may be nil for offline-only
// operation; bank and ledger are required.
func NewController(source Source, bank Bank, ledger Ledger, topics []Topic, opts ...ControllerOption) (*Controller, error) {
	if bank == nil {
		return nil, fmt.Errorf("quizpilot: a question bank is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("quizpilot: a usage ledger is required")
	}

	c := &Controller{
		topics:    topics,
		source:    source,
		bank:      bank,
		ledger:    ledger,
		threshold: DefaultNearLimitThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.balancer == nil {
		c.balancer = NewBalancer()
	}
	if c.meter == nil {
		c.meter = &noopMeter{}
	}

	return c, nil
}

// NextQuestion produces the question for one quiz turn. Rate limits and
// transient remote failures are absorbed by falling back to the local
// corpus; the only caller-visible failure is ErrNoQuestion, when the corpus
// has nothing to offer either. The caller is responsible for recording the
// outcome via Ledger.Record.
func (c *Controller) NextQuestion(ctx context.Context, req TurnRequest) (TurnResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	turnID := uuid.New().String()
	start := time.Now()

	snap := c.ledger.Load(ctx)

	threshold := req.NearLimitThreshold
	if threshold <= 0 {
		threshold = c.threshold
	}
	remoteAllowed := c.source != nil && c.estimator.MayAttemptRemote(snap.Quota, threshold)

	topicID, topicChosen := c.balancer.Choose(snap, c.availableTopics(), c.lastTopic, true)

	attempts := 0
	if remoteAllowed && topicChosen {
		result, n, done, err := c.attemptRemote(ctx, turnID, topicID, req.PreferredModel)
		attempts = n
		if err != nil {
			return TurnResult{}, err
		}
		if done {
			c.finishTurn(turnID, result, remoteAllowed, attempts, start)
			return result, nil
		}
	} else if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}

	result, err := c.localFallback(topicID, topicChosen)
	if err != nil {
		c.meter.OnTurn(TurnEvent{
			TurnID:         turnID,
			TopicID:        topicID,
			RemoteAllowed:  remoteAllowed,
			RemoteAttempts: attempts,
			Duration:       time.Since(start),
			Err:            err,
		})
		return TurnResult{}, err
	}

	c.finishTurn(turnID, result, remoteAllowed, attempts, start)
	return result, nil
}

// attemptRemote walks the ranked candidate list sequentially. A rate-limit
// signal from any candidate ends the loop immediately: it reflects ceiling
// state for the whole account, not just that candidate. done is false when
// all candidates were exhausted and the turn should fall back locally; err
// is non-nil only for caller cancellation.
func (c *Controller) attemptRemote(ctx context.Context, turnID, topicID, preferred string) (result TurnResult, attempts int, done bool, err error) {
	listed, err := c.source.ListCandidates(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return TurnResult{}, 0, false, ctx.Err()
		}
		c.ledger.RegisterError(ctx, fmt.Sprintf("list candidates: %v", err))
		return TurnResult{}, 0, false, nil
	}

	topic := c.topicByID(topicID)
	ranked := RankCandidates(listed, preferred)
	if len(ranked) == 0 {
		c.ledger.RegisterError(ctx, ErrNoModels.Error())
		return TurnResult{}, 0, false, nil
	}

	for attempt, model := range ranked {
		if err := ctx.Err(); err != nil {
			return TurnResult{}, attempts, false, err
		}
		attempts++

		attemptStart := time.Now()
		q, err := c.source.Generate(ctx, model, topic)
		if err == nil {
			err = q.Validate()
		}

		c.meter.OnAttempt(AttemptEvent{
			TurnID:   turnID,
			Model:    model,
			TopicID:  topicID,
			Attempt:  attempt + 1,
			Duration: time.Since(attemptStart),
			Err:      err,
		})

		if err != nil {
			if IsRateLimited(err) {
				c.ledger.RegisterRateLimit(ctx, time.Now(), err.Error())
				return TurnResult{}, attempts, false, nil
			}
			if ctx.Err() != nil {
				return TurnResult{}, attempts, false, ctx.Err()
			}
			c.ledger.RegisterError(ctx, (&TurnError{Err: err, Model: model, TopicID: topicID, Attempt: attempt + 1}).Error())
			continue
		}

		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		q.TopicID = topicID

		c.ledger.AddQuotaUsage(ctx, EstimateUnits(BuildPrompt(topic), q.Text, q.Explanation))

		return TurnResult{
			TopicID:   topicID,
			Origin:    OriginRemote,
			ModelUsed: model,
			Question:  q,
		}, attempts, true, nil
	}

	return TurnResult{}, attempts, false, nil
}

// localFallback draws from the static corpus: the chosen topic first, then
// the whole corpus. An empty corpus is the one fatal outcome.
func (c *Controller) localFallback(topicID string, topicChosen bool) (TurnResult, error) {
	if topicChosen {
		if q, ok := c.bank.Draw(topicID); ok {
			return TurnResult{TopicID: topicID, Origin: OriginLocal, Question: q}, nil
		}
	}

	q, ok := c.bank.DrawAny()
	if !ok {
		return TurnResult{}, ErrNoQuestion
	}
	if q.TopicID != "" {
		topicID = q.TopicID
	}
	return TurnResult{TopicID: topicID, Origin: OriginLocal, Question: q}, nil
}

func (c *Controller) finishTurn(turnID string, result TurnResult, remoteAllowed bool, attempts int, start time.Time) {
	c.lastTopic = result.TopicID
	c.history = append(c.history, result)

	c.meter.OnTurn(TurnEvent{
		TurnID:         turnID,
		TopicID:        result.TopicID,
		Origin:         result.Origin,
		Model:          result.ModelUsed,
		RemoteAllowed:  remoteAllowed,
		RemoteAttempts: attempts,
		Duration:       time.Since(start),
	})
}

// availableTopics returns the configured topic IDs, or the bank's topics
// when none were configured.
func (c *Controller) availableTopics() []string {
	if len(c.topics) > 0 {
		ids := make([]string, len(c.topics))
		for i, t := range c.topics {
			ids[i] = t.ID
		}
		return ids
	}
	return c.bank.Topics()
}

func (c *Controller) topicByID(id string) Topic {
	for _, t := range c.topics {
		if t.ID == id {
			return t
		}
	}
	return Topic{ID: id, Label: id}
}

// History returns the turn outcomes produced since the Controller was
// created. Session-scoped, never persisted.
func (c *Controller) History() []TurnResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TurnResult, len(c.history))
	copy(out, c.history)
	return out
}

// noopMeter is a meter that does nothing.
type noopMeter struct{}

func (m *noopMeter) OnAttempt(AttemptEvent) {}
func (m *noopMeter) OnTurn(TurnEvent)       {}
