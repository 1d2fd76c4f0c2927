package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAutoDelay     = 300 * time.Millisecond
	testAnalysisDelay = 3 * time.Second
)

type sentResult struct {
	url  string
	data *entity.CallbackResultData
}

type fakeCallback struct {
	sent   chan sentResult
	errors chan sentError
}

type sentError struct {
	url     string
	message string
	details map[string]any
}

func (f *fakeCallback) SendResult(_ context.Context, callbackURL, _ string, data *entity.CallbackResultData) {
	f.sent <- sentResult{url: callbackURL, data: data}
}

func (f *fakeCallback) SendError(_ context.Context, callbackURL, _ string, message string, details map[string]any) {
	f.errors <- sentError{url: callbackURL, message: message, details: details}
}

type fakeMetrics struct {
	mu       sync.Mutex
	started  int
	ended    int
	outcomes []entity.Tier
}

func (m *fakeMetrics) SessionStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *fakeMetrics) SessionRestarted() {}

func (m *fakeMetrics) SessionEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended++
}

func (m *fakeMetrics) StepReached(string) {}

func (m *fakeMetrics) OutcomeClassified(tier entity.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, tier)
}

type fixture struct {
	uc       *IntakeUsecase
	sched    *intake.ManualScheduler
	callback *fakeCallback
	metrics  *fakeMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sched:    intake.NewManualScheduler(),
		callback: &fakeCallback{sent: make(chan sentResult, 4), errors: make(chan sentError, 4)},
		metrics:  &fakeMetrics{},
	}
	f.uc = NewUsecase(
		intake.MustCatalog(intake.DefaultQuestions()),
		Config{
			Timings:    intake.Timings{AutoAdvanceDelay: testAutoDelay, AnalysisDelay: testAnalysisDelay},
			SessionTTL: time.Hour,
			Scheduler:  f.sched,
		},
		f.callback,
		f.metrics,
		zap.NewNop(),
	)
	return f
}

func answerFor(q *entity.QuestionDTO, revenue string) entity.Answer {
	switch q.Type {
	case entity.QuestionKindCurrency:
		return entity.Answer{Value: revenue}
	case entity.QuestionKindContact:
		return entity.Answer{Contact: &entity.Contact{Email: "owner@example.com", Name: "Sam"}}
	default:
		return entity.Answer{Value: q.Options[0]}
	}
}

// completeFlow walks the session to the analyzing phase
func (f *fixture) completeFlow(t *testing.T, id, revenue string) {
	t.Helper()
	ctx := context.Background()

	for {
		view, err := f.uc.GetSession(ctx, id)
		require.NoError(t, err)
		if view.Phase != entity.FlowPhaseCollecting {
			return
		}

		q := view.CurrentQuestion
		require.NotNil(t, q)
		_, err = f.uc.SubmitAnswer(ctx, id, q.ID, answerFor(q, revenue))
		require.NoError(t, err)

		if q.Type.IsChoice() {
			f.sched.Advance(testAutoDelay)
		} else {
			_, err = f.uc.Advance(ctx, id)
			require.NoError(t, err)
		}
	}
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)

	view, err := f.uc.StartSession(context.Background(), &entity.StartSessionRequest{})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, entity.FlowPhaseCollecting, view.Phase)
	require.NotNil(t, view.Progress)
	assert.Equal(t, "Step 1 of 11", view.Progress.Label)
	assert.InDelta(t, 9.1, view.Progress.Percent, 0.01)
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, "asins", view.CurrentQuestion.ID)
	assert.False(t, view.CanAdvance)
	assert.False(t, view.CanRetreat)
	assert.Equal(t, 1, f.metrics.started)
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSubmitAnswer_CurrencyAndNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, nil)
	require.NoError(t, err)
	id := view.ID

	_, err = f.uc.SubmitAnswer(ctx, id, "asins", entity.Answer{Value: "1-10"})
	require.NoError(t, err)
	f.sched.Advance(testAutoDelay)

	view, err = f.uc.SubmitAnswer(ctx, id, entity.QuestionIDRevenue, entity.Answer{Value: "$90,000"})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Progress.Step)
	assert.Equal(t, "90000", view.Answers[entity.QuestionIDRevenue].Value)
	assert.Equal(t, "90,000", view.Answers[entity.QuestionIDRevenue].Display)
	assert.True(t, view.CanAdvance)
	assert.True(t, view.CanRetreat)

	view, err = f.uc.Retreat(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Progress.Step)
	assert.Equal(t, "1-10", view.Answers["asins"].Value)
}

func TestSubmitAnswer_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, nil)
	require.NoError(t, err)

	_, err = f.uc.SubmitAnswer(ctx, view.ID, "nope", entity.Answer{Value: "x"})
	assert.ErrorIs(t, err, entity.ErrUnknownQuestion)

	_, err = f.uc.SubmitAnswer(ctx, view.ID, "asins", entity.Answer{Value: "lots"})
	assert.ErrorIs(t, err, entity.ErrInvalidOption)

	_, err = f.uc.Advance(ctx, view.ID)
	assert.ErrorIs(t, err, entity.ErrStepIncomplete)
}

func TestFullFlow_ResultAndCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, &entity.StartSessionRequest{CallbackURL: "http://crm.local/hook"})
	require.NoError(t, err)
	id := view.ID

	f.completeFlow(t, id, "50000")

	view, err = f.uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.FlowPhaseAnalyzing, view.Phase)
	assert.Equal(t, AnalysisMessages, view.AnalysisMessages)

	_, err = f.uc.GetResult(ctx, id)
	assert.ErrorIs(t, err, entity.ErrNoResult)

	_, err = f.uc.Retreat(ctx, id)
	assert.ErrorIs(t, err, entity.ErrFlowBusy)

	f.sched.Advance(testAnalysisDelay)

	result, err := f.uc.GetResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.TierGuardian, result.Tier)
	assert.Equal(t, "$349/month", result.PriceDisplay)
	assert.Equal(t, "$1,667", result.DailyLossDisplay)

	select {
	case sent := <-f.callback.sent:
		assert.Equal(t, "http://crm.local/hook", sent.url)
		assert.Equal(t, id, sent.data.SessionID)
		assert.Equal(t, entity.TierGuardian, sent.data.Tier)
		require.NotNil(t, sent.data.Contact)
		assert.Equal(t, "owner@example.com", sent.data.Contact.Email)
	case <-time.After(time.Second):
		t.Fatal("result callback was not sent")
	}

	assert.Equal(t, []entity.Tier{entity.TierGuardian}, f.metrics.outcomes)
	require.NoError(t, f.uc.Shutdown(ctx))
}

func TestFullFlow_NotEligibleThenRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, nil)
	require.NoError(t, err)
	id := view.ID

	f.completeFlow(t, id, "5000")
	f.sched.Advance(testAnalysisDelay)

	view, err = f.uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.NotEligible)
	require.NotNil(t, view.Result)
	assert.Equal(t, entity.TierNotEligible, view.Result.Tier)

	_, err = f.uc.Advance(ctx, id)
	assert.ErrorIs(t, err, entity.ErrFlowFinished)

	view, err = f.uc.Restart(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.FlowPhaseCollecting, view.Phase)
	assert.Equal(t, 1, view.Progress.Step)
	assert.Empty(t, view.Answers)

	select {
	case <-f.callback.sent:
		t.Fatal("callback sent without callback url")
	default:
	}
}

func TestSubscribe_ReceivesTimerTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var steps []int
	unsubscribe, err := f.uc.Subscribe(view.ID, func(v *entity.SessionView) {
		mu.Lock()
		defer mu.Unlock()
		steps = append(steps, v.Progress.Step)
	})
	require.NoError(t, err)

	_, err = f.uc.SubmitAnswer(ctx, view.ID, "asins", entity.Answer{Value: "1-10"})
	require.NoError(t, err)
	f.sched.Advance(testAutoDelay)

	unsubscribe()
	_, err = f.uc.Retreat(ctx, view.ID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	// answer recorded on step 1, then the auto-advance to step 2
	assert.Equal(t, []int{1, 2}, steps)
}

func TestCancelSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, nil)
	require.NoError(t, err)

	_, err = f.uc.SubmitAnswer(ctx, view.ID, "asins", entity.Answer{Value: "1-10"})
	require.NoError(t, err)

	require.NoError(t, f.uc.CancelSession(ctx, view.ID))
	assert.Equal(t, 1, f.metrics.ended)

	// pending auto-advance belongs to a closed controller
	f.sched.FireAll()

	_, err = f.uc.GetSession(ctx, view.ID)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	assert.ErrorIs(t, f.uc.CancelSession(ctx, view.ID), entity.ErrSessionNotFound)
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)

	dto := f.uc.Catalog()
	assert.Equal(t, 11, dto.Total)
	require.Len(t, dto.Questions, 11)
	assert.Equal(t, 2, dto.Questions[1].Step)
	assert.Equal(t, entity.QuestionIDRevenue, dto.Questions[1].ID)
}

func TestCancelSession_NotifiesCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, &entity.StartSessionRequest{CallbackURL: "http://crm.local/hook"})
	require.NoError(t, err)

	require.NoError(t, f.uc.CancelSession(ctx, view.ID))

	select {
	case sent := <-f.callback.errors:
		assert.Equal(t, "http://crm.local/hook", sent.url)
		assert.Equal(t, "cancelled", sent.details["reason"])
		assert.Equal(t, string(entity.FlowPhaseCollecting), sent.details["phase"])
		assert.Equal(t, 1, sent.details["step"])
	case <-time.After(time.Second):
		t.Fatal("error callback was not sent")
	}
	require.NoError(t, f.uc.Shutdown(ctx))
}

func TestCancelSession_AfterResultSendsNoError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx, &entity.StartSessionRequest{CallbackURL: "http://crm.local/hook"})
	require.NoError(t, err)

	f.completeFlow(t, view.ID, "50000")
	f.sched.Advance(testAnalysisDelay)
	require.NoError(t, f.uc.CancelSession(ctx, view.ID))
	require.NoError(t, f.uc.Shutdown(ctx))

	assert.Len(t, f.callback.sent, 1)
	assert.Empty(t, f.callback.errors)
}
