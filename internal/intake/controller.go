package intake

import (
	"fmt"
	"sync"
	"time"

	"github.com/sellershield/intake-backend/internal/classifier"
	"github.com/sellershield/intake-backend/internal/entity"
)

const (
	defaultAutoAdvanceDelay = 300 * time.Millisecond
	defaultAnalysisDelay    = 3 * time.Second
)

// Timings controls UX pacing. Neither delay affects the outcome.
type Timings struct {
	// AutoAdvanceDelay lets the user see a highlighted choice before the step changes
	AutoAdvanceDelay time.Duration
	// AnalysisDelay is the simulated analysis latency before the result is shown
	AnalysisDelay time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		AutoAdvanceDelay: defaultAutoAdvanceDelay,
		AnalysisDelay:    defaultAnalysisDelay,
	}
}

// ClassifyFunc maps a completed answer set to an outcome
type ClassifyFunc func(entity.AnswerSet) entity.Tier

// Observer is notified after every state transition. Transitions are delivered
// in order, one at a time, without the state lock held, so an observer may call
// back into the controller. Transitions it causes are delivered after it returns.
type Observer func(prev, next entity.FlowState)

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

func WithTimings(t Timings) Option {
	return func(c *Controller) {
		c.timings = t
	}
}

func WithClassifier(fn ClassifyFunc) Option {
	return func(c *Controller) {
		c.classify = fn
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

type transition struct {
	prev entity.FlowState
	next entity.FlowState
}

// Controller owns one intake flow: the current step, the collected answers and
// the deferred auto-advance and analysis transitions.
type Controller struct {
	mu sync.Mutex

	catalog   *Catalog
	scheduler Scheduler
	timings   Timings
	classify  ClassifyFunc
	observers []Observer

	state  entity.FlowState
	closed bool

	autoAdvance   Timer
	autoToken     uint64
	analysis      Timer
	analysisToken uint64

	queued     []transition
	delivering bool
}

// NewController creates a flow at step 1 with an empty answer set
func NewController(catalog *Catalog, opts ...Option) *Controller {
	c := &Controller{
		catalog:   catalog,
		scheduler: NewClockScheduler(),
		timings:   DefaultTimings(),
		classify:  classifier.Classify,
		state:     entity.InitialFlowState(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Catalog returns the question catalog driving this flow
func (c *Controller) Catalog() *Catalog {
	return c.catalog
}

// State returns a deep copy of the current flow state
func (c *Controller) State() entity.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// CurrentQuestion returns the question of the active step while collecting
func (c *Controller) CurrentQuestion() (entity.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != entity.FlowPhaseCollecting {
		return entity.Question{}, false
	}
	return c.catalog.At(c.state.Step)
}

// CanAdvance reports whether the current step holds a valid answer
func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAdvanceLocked()
}

// CanRetreat reports whether Retreat would move the flow back
func (c *Controller) CanRetreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.state.Phase == entity.FlowPhaseCollecting && c.state.Step > 1
}

// Answer records an answer, replacing any previous answer for the question.
// Answering the current step of a choice question schedules an automatic advance.
func (c *Controller) Answer(questionID string, raw entity.Answer) error {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if err := c.checkInputLocked(); err != nil {
		return err
	}

	q, step, ok := c.catalog.Lookup(questionID)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrUnknownQuestion, questionID)
	}

	ans, err := NormalizeAnswer(q, raw)
	if err != nil {
		return err
	}

	answers := c.state.Answers.Clone()
	answers[q.ID] = ans

	next := c.state
	next.Answers = answers
	c.transitionLocked(next)

	if q.Kind.IsChoice() && step == c.state.Step {
		c.scheduleAutoAdvanceLocked(step)
	}

	return nil
}

// Advance moves to the next step, or starts the analysis on the final step.
// It fails with ErrStepIncomplete while the current step has no valid answer.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if err := c.checkInputLocked(); err != nil {
		return err
	}
	return c.advanceLocked()
}

// Retreat moves back one step. It is a no-op on step 1 and keeps all answers.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if err := c.checkInputLocked(); err != nil {
		return err
	}

	c.cancelAutoAdvanceLocked()

	if c.state.Step <= 1 {
		return nil
	}

	next := c.state
	next.Step--
	c.transitionLocked(next)
	return nil
}

// Restart discards the answers and returns to step 1. It is rejected only while
// the analysis is running.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if c.closed {
		return entity.ErrFlowClosed
	}
	if c.state.Phase == entity.FlowPhaseAnalyzing {
		return entity.ErrFlowBusy
	}

	c.cancelAutoAdvanceLocked()
	c.transitionLocked(entity.InitialFlowState())
	return nil
}

// Close cancels pending timers. A closed controller rejects all input.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.cancelAutoAdvanceLocked()
	if c.analysis != nil {
		c.analysis.Stop()
		c.analysis = nil
	}
	c.analysisToken++
}

func (c *Controller) checkInputLocked() error {
	if c.closed {
		return entity.ErrFlowClosed
	}

	switch c.state.Phase {
	case entity.FlowPhaseAnalyzing:
		return entity.ErrFlowBusy
	case entity.FlowPhaseResulted:
		return entity.ErrFlowFinished
	}
	return nil
}

func (c *Controller) canAdvanceLocked() bool {
	if c.closed || c.state.Phase != entity.FlowPhaseCollecting {
		return false
	}

	q, ok := c.catalog.At(c.state.Step)
	if !ok {
		return false
	}

	ans, ok := c.state.Answers[q.ID]
	return ok && IsValidAnswer(q, ans)
}

func (c *Controller) advanceLocked() error {
	if !c.canAdvanceLocked() {
		return entity.ErrStepIncomplete
	}

	c.cancelAutoAdvanceLocked()

	next := c.state
	if c.state.Step < c.catalog.Len() {
		next.Step++
		c.transitionLocked(next)
		return nil
	}

	next.Phase = entity.FlowPhaseAnalyzing
	c.transitionLocked(next)

	// the answer set is frozen: no input is accepted until the result is in
	frozen := next.Answers
	c.analysisToken++
	token := c.analysisToken
	c.analysis = c.scheduler.Schedule(c.timings.AnalysisDelay, func() {
		c.finishAnalysis(token, frozen)
	})
	return nil
}

func (c *Controller) finishAnalysis(token uint64, answers entity.AnswerSet) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if c.closed || token != c.analysisToken || c.state.Phase != entity.FlowPhaseAnalyzing {
		return
	}
	c.analysis = nil

	next := c.state
	next.Phase = entity.FlowPhaseResulted
	next.Outcome = c.classify(answers)
	c.transitionLocked(next)
}

func (c *Controller) scheduleAutoAdvanceLocked(step int) {
	c.cancelAutoAdvanceLocked()

	token := c.autoToken
	c.autoAdvance = c.scheduler.Schedule(c.timings.AutoAdvanceDelay, func() {
		c.fireAutoAdvance(token, step)
	})
}

func (c *Controller) cancelAutoAdvanceLocked() {
	if c.autoAdvance != nil {
		c.autoAdvance.Stop()
		c.autoAdvance = nil
	}
	c.autoToken++
}

func (c *Controller) fireAutoAdvance(token uint64, step int) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if c.closed || token != c.autoToken {
		return
	}
	if c.state.Phase != entity.FlowPhaseCollecting || c.state.Step != step {
		return
	}
	c.autoAdvance = nil

	// a stale or invalid selection simply leaves the user on the step
	_ = c.advanceLocked()
}

// transitionLocked replaces the state value and queues observer notification
func (c *Controller) transitionLocked(next entity.FlowState) {
	prev := c.state
	c.state = next
	if len(c.observers) > 0 {
		c.queued = append(c.queued, transition{prev: prev, next: next})
	}
}

// unlockAndNotify releases the state lock and delivers queued transitions in
// order. Only one goroutine delivers at a time; the others leave their
// transitions in the queue for it.
func (c *Controller) unlockAndNotify() {
	if c.delivering || len(c.queued) == 0 {
		c.mu.Unlock()
		return
	}
	c.delivering = true

	for len(c.queued) > 0 {
		batch := c.queued
		c.queued = nil
		c.mu.Unlock()

		for _, t := range batch {
			for _, o := range c.observers {
				o(t.prev.Clone(), t.next.Clone())
			}
		}

		c.mu.Lock()
	}

	c.delivering = false
	c.mu.Unlock()
}
