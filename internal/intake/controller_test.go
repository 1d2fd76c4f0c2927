package intake

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAutoDelay     = 300 * time.Millisecond
	testAnalysisDelay = 3 * time.Second
)

func newTestController(t *testing.T, opts ...Option) (*Controller, *ManualScheduler) {
	t.Helper()

	sched := NewManualScheduler()
	base := []Option{
		WithScheduler(sched),
		WithTimings(Timings{AutoAdvanceDelay: testAutoDelay, AnalysisDelay: testAnalysisDelay}),
	}
	return NewController(MustCatalog(DefaultQuestions()), append(base, opts...)...), sched
}

func validAnswer(q entity.Question, revenue string) entity.Answer {
	switch q.Kind {
	case entity.QuestionKindSelect, entity.QuestionKindButtons:
		return entity.Answer{Value: q.Options[0]}
	case entity.QuestionKindCurrency:
		return entity.Answer{Value: revenue}
	default:
		return entity.Answer{Contact: &entity.Contact{Email: "owner@example.com"}}
	}
}

// completeStep answers the current step and moves past it the way a user would
func completeStep(t *testing.T, c *Controller, sched *ManualScheduler, revenue string) {
	t.Helper()

	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	require.NoError(t, c.Answer(q.ID, validAnswer(q, revenue)))

	if q.Kind.IsChoice() {
		sched.Advance(testAutoDelay)
		return
	}
	require.NoError(t, c.Advance())
}

func completeFlow(t *testing.T, c *Controller, sched *ManualScheduler, revenue string) {
	t.Helper()

	for c.State().Phase == entity.FlowPhaseCollecting {
		completeStep(t, c, sched, revenue)
	}
	require.Equal(t, entity.FlowPhaseAnalyzing, c.State().Phase)
	sched.Advance(testAnalysisDelay)
}

func TestController_InitialState(t *testing.T) {
	c, _ := newTestController(t)

	st := c.State()
	assert.Equal(t, entity.FlowPhaseCollecting, st.Phase)
	assert.Equal(t, 1, st.Step)
	assert.Empty(t, st.Answers)
	assert.False(t, c.CanAdvance())
	assert.False(t, c.CanRetreat())

	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "asins", q.ID)
}

func TestController_AdvanceRequiresAnswer(t *testing.T) {
	c, _ := newTestController(t)

	err := c.Advance()
	assert.ErrorIs(t, err, entity.ErrStepIncomplete)
	assert.Equal(t, 1, c.State().Step)
}

func TestController_ChoiceAutoAdvancesAfterDelay(t *testing.T) {
	c, sched := newTestController(t)

	require.NoError(t, c.Answer("asins", entity.Answer{Value: "11-50"}))
	assert.Equal(t, 1, c.State().Step, "selection stays visible until the delay elapses")
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(testAutoDelay - time.Millisecond)
	assert.Equal(t, 1, c.State().Step)

	sched.Advance(time.Millisecond)
	assert.Equal(t, 2, c.State().Step)
	assert.Equal(t, "11-50", c.State().Answers["asins"].Value)
}

func TestController_ReanswerReschedulesAutoAdvance(t *testing.T) {
	c, sched := newTestController(t)

	require.NoError(t, c.Answer("asins", entity.Answer{Value: "1-10"}))
	sched.Advance(200 * time.Millisecond)
	require.NoError(t, c.Answer("asins", entity.Answer{Value: "500+"}))
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, 1, c.State().Step)

	sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 2, c.State().Step)
	assert.Equal(t, "500+", c.State().Answers["asins"].Value)
}

func TestController_RetreatCancelsPendingAutoAdvance(t *testing.T) {
	c, sched := newTestController(t)

	completeStep(t, c, sched, "50000")
	completeStep(t, c, sched, "50000")
	require.Equal(t, 3, c.State().Step)

	require.NoError(t, c.Answer("violations", entity.Answer{Value: "0"}))
	require.NoError(t, c.Retreat())
	sched.FireAll()

	assert.Equal(t, 2, c.State().Step)
}

func TestController_AnsweringOtherStepDoesNotAdvance(t *testing.T) {
	c, sched := newTestController(t)

	require.NoError(t, c.Answer("brandRegistry", entity.Answer{Value: "Yes"}))
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 1, c.State().Step)
	assert.Equal(t, "Yes", c.State().Answers["brandRegistry"].Value)
}

func TestController_CurrencyInput(t *testing.T) {
	c, sched := newTestController(t)
	completeStep(t, c, sched, "")
	require.Equal(t, 2, c.State().Step)

	require.NoError(t, c.Answer(entity.QuestionIDRevenue, entity.Answer{Value: "abc"}))
	assert.False(t, c.CanAdvance())
	assert.ErrorIs(t, c.Advance(), entity.ErrStepIncomplete)

	require.NoError(t, c.Answer(entity.QuestionIDRevenue, entity.Answer{Value: "$0090,000.x"}))
	ans := c.State().Answers[entity.QuestionIDRevenue]
	assert.Equal(t, "90000", ans.Value)
	assert.Equal(t, "90,000", ans.Display)
	assert.Equal(t, 0, sched.Pending(), "currency input never advances on its own")
	assert.True(t, c.CanAdvance())

	require.NoError(t, c.Advance())
	assert.Equal(t, 3, c.State().Step)
}

func TestController_ContactGate(t *testing.T) {
	c, sched := newTestController(t)
	for c.State().Step < c.Catalog().Len() {
		completeStep(t, c, sched, "50000")
	}

	require.NoError(t, c.Answer(entity.QuestionIDContact, entity.Answer{Value: "not-an-email"}))
	assert.False(t, c.CanAdvance())
	assert.ErrorIs(t, c.Advance(), entity.ErrStepIncomplete)

	require.NoError(t, c.Answer(entity.QuestionIDContact, entity.Answer{Value: "a@b"}))
	assert.True(t, c.CanAdvance())
	assert.Equal(t, "a@b", c.State().Answers[entity.QuestionIDContact].Contact.Email)
}

func TestController_RetreatThenAdvancePreservesStep(t *testing.T) {
	c, sched := newTestController(t)
	n := c.Catalog().Len()

	for step := 1; step <= n; step++ {
		require.Equal(t, step, c.State().Step)

		if step > 1 {
			before := c.State()
			require.NoError(t, c.Retreat())
			require.Equal(t, step-1, c.State().Step)
			require.NoError(t, c.Advance())

			after := c.State()
			assert.Equal(t, step, after.Step)
			assert.Equal(t, before.Answers, after.Answers)
		}

		if step < n {
			completeStep(t, c, sched, "50000")
		}
	}
}

func TestController_RetreatOnFirstStepIsNoop(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Retreat())
	assert.Equal(t, 1, c.State().Step)
}

func TestController_RetreatKeepsLaterAnswers(t *testing.T) {
	c, sched := newTestController(t)
	completeStep(t, c, sched, "50000")
	completeStep(t, c, sched, "50000")

	require.NoError(t, c.Retreat())
	require.NoError(t, c.Retreat())

	st := c.State()
	assert.Equal(t, 1, st.Step)
	assert.Contains(t, st.Answers, "asins")
	assert.Contains(t, st.Answers, entity.QuestionIDRevenue)
	assert.True(t, c.CanAdvance())
}

func TestController_FullFlowClassifies(t *testing.T) {
	tests := []struct {
		revenue string
		want    entity.Tier
	}{
		{"50000", entity.TierGuardian},
		{"100000", entity.TierDefender},
		{"500000", entity.TierFortress},
		{"2000000", entity.TierEmpire},
		{"0", entity.TierNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.revenue, func(t *testing.T) {
			c, sched := newTestController(t)
			completeFlow(t, c, sched, tt.revenue)

			st := c.State()
			assert.Equal(t, entity.FlowPhaseResulted, st.Phase)
			assert.Equal(t, tt.want, st.Outcome)
			assert.Equal(t, tt.want == entity.TierNotEligible, st.IsNotEligible())
		})
	}
}

func TestController_AnalyzingRejectsInput(t *testing.T) {
	c, sched := newTestController(t)
	for c.State().Phase == entity.FlowPhaseCollecting {
		completeStep(t, c, sched, "50000")
	}
	require.Equal(t, entity.FlowPhaseAnalyzing, c.State().Phase)

	assert.ErrorIs(t, c.Answer("asins", entity.Answer{Value: "1-10"}), entity.ErrFlowBusy)
	assert.ErrorIs(t, c.Advance(), entity.ErrFlowBusy)
	assert.ErrorIs(t, c.Retreat(), entity.ErrFlowBusy)
	assert.ErrorIs(t, c.Restart(), entity.ErrFlowBusy)
	assert.Empty(t, c.State().Outcome, "no partial result while analyzing")

	sched.Advance(testAnalysisDelay)
	assert.Equal(t, entity.FlowPhaseResulted, c.State().Phase)
	assert.ErrorIs(t, c.Advance(), entity.ErrFlowFinished)
}

func TestController_ClassifiesExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	c, sched := newTestController(t, WithClassifier(func(a entity.AnswerSet) entity.Tier {
		calls.Add(1)
		return entity.TierGuardian
	}))

	completeFlow(t, c, sched, "50000")
	sched.FireAll()

	assert.Equal(t, int32(1), calls.Load())
}

func TestController_RestartAfterNotEligible(t *testing.T) {
	c, sched := newTestController(t)
	completeFlow(t, c, sched, "0")
	require.True(t, c.State().IsNotEligible())

	require.NoError(t, c.Restart())

	assert.Equal(t, entity.InitialFlowState(), c.State())
	assert.False(t, c.CanAdvance())
}

func TestController_RejectsBadInput(t *testing.T) {
	c, sched := newTestController(t)

	err := c.Answer("favouriteColour", entity.Answer{Value: "blue"})
	assert.ErrorIs(t, err, entity.ErrUnknownQuestion)

	err = c.Answer("asins", entity.Answer{Value: "a few"})
	assert.ErrorIs(t, err, entity.ErrInvalidOption)

	assert.Empty(t, c.State().Answers)
	assert.Equal(t, 0, sched.Pending())
}

func TestController_CloseCancelsTimers(t *testing.T) {
	c, sched := newTestController(t)
	for c.State().Phase == entity.FlowPhaseCollecting {
		completeStep(t, c, sched, "50000")
	}

	c.Close()
	sched.FireAll()

	assert.Equal(t, entity.FlowPhaseAnalyzing, c.State().Phase)
	assert.ErrorIs(t, c.Restart(), entity.ErrFlowClosed)
	assert.False(t, c.CanAdvance())
}

func TestController_StateIsACopy(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Answer("brandRegistry", entity.Answer{Value: "No"}))

	st := c.State()
	st.Answers["brandRegistry"] = entity.Answer{Value: "Yes"}
	st.Step = 7

	assert.Equal(t, "No", c.State().Answers["brandRegistry"].Value)
	assert.Equal(t, 1, c.State().Step)
}

func TestController_ObserverSeesTransitionsInOrder(t *testing.T) {
	var (
		mu     sync.Mutex
		phases []entity.FlowPhase
		steps  []int
	)
	c, sched := newTestController(t, WithObserver(func(prev, next entity.FlowState) {
		mu.Lock()
		defer mu.Unlock()
		if prev.Step != next.Step || prev.Phase != next.Phase {
			phases = append(phases, next.Phase)
			steps = append(steps, next.Step)
		}
	}))

	completeFlow(t, c, sched, "100000")

	n := c.Catalog().Len()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, steps, n+1)
	for i := 0; i < n-1; i++ {
		assert.Equal(t, i+2, steps[i])
		assert.Equal(t, entity.FlowPhaseCollecting, phases[i])
	}
	assert.Equal(t, entity.FlowPhaseAnalyzing, phases[n-1])
	assert.Equal(t, entity.FlowPhaseResulted, phases[n])
}

func TestController_ObserverReadsWhileAnotherGoroutineAnswers(t *testing.T) {
	var (
		c         *Controller
		delivered []entity.FlowState
		once      sync.Once
	)
	c, _ = newTestController(t, WithObserver(func(_, next entity.FlowState) {
		delivered = append(delivered, next)

		once.Do(func() {
			done := make(chan error, 1)
			go func() {
				done <- c.Answer(entity.QuestionIDRevenue, entity.Answer{Value: "90000"})
			}()

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Error("concurrent Answer blocked behind a running observer")
				return
			}

			state := c.State()
			assert.Equal(t, "90000", state.Answers[entity.QuestionIDRevenue].Value)
		})
	}))

	require.NoError(t, c.Answer("asins", entity.Answer{Value: "1-10"}))

	// the concurrent answer is delivered after the first observer call returns
	require.Len(t, delivered, 2)
	assert.NotContains(t, delivered[0].Answers, entity.QuestionIDRevenue)
	assert.Equal(t, "90000", delivered[1].Answers[entity.QuestionIDRevenue].Value)
}

func TestController_ObserverMayCallBack(t *testing.T) {
	var (
		c     *Controller
		steps []int
	)
	c, sched := newTestController(t, WithObserver(func(prev, next entity.FlowState) {
		steps = append(steps, next.Step)
		if prev.Step == 1 && next.Step == 2 {
			assert.NoError(t, c.Retreat())
		}
	}))

	require.NoError(t, c.Answer("asins", entity.Answer{Value: "1-10"}))
	sched.Advance(testAutoDelay)

	// answer on 1, auto-advance to 2, retreat issued from the observer back to 1
	assert.Equal(t, []int{1, 2, 1}, steps)
	assert.Equal(t, 1, c.State().Step)
}

func TestController_ClockScheduler(t *testing.T) {
	c := NewController(MustCatalog(DefaultQuestions()),
		WithTimings(Timings{AutoAdvanceDelay: time.Millisecond, AnalysisDelay: time.Millisecond}),
	)
	defer c.Close()

	require.NoError(t, c.Answer("asins", entity.Answer{Value: "1-10"}))
	require.Eventually(t, func() bool {
		return c.State().Step == 2
	}, time.Second, 5*time.Millisecond)
}
