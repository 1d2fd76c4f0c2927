package render

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/quote"
	"github.com/stretchr/testify/assert"
)

func TestRenderView_Question(t *testing.T) {
	view := &entity.SessionView{
		Phase:    entity.FlowPhaseCollecting,
		Progress: &entity.ProgressDTO{Step: 2, Total: 11, Percent: 18.2, Label: "Step 2 of 11"},
		CurrentQuestion: &entity.QuestionDTO{
			ID:    entity.QuestionIDRevenue,
			Title: "What is your monthly revenue?",
			Type:  entity.QuestionKindCurrency,
		},
		Answers: entity.AnswerSet{
			entity.QuestionIDRevenue: {Value: "50000", Display: "50,000"},
		},
	}

	text := RenderView(view)
	assert.Contains(t, text, "Step 2 of 11 · 18%")
	assert.Contains(t, text, "What is your monthly revenue?")
	assert.Contains(t, text, MsgPromptCurrency)
	assert.Contains(t, text, "Current answer: $50,000")
}

func TestRenderView_Analysis(t *testing.T) {
	text := RenderView(&entity.SessionView{
		Phase:            entity.FlowPhaseAnalyzing,
		AnalysisMessages: []string{"one", "two"},
	})
	assert.Contains(t, text, "• one\n• two")
}

func TestRenderView_Result(t *testing.T) {
	text := RenderView(&entity.SessionView{
		Phase:  entity.FlowPhaseResulted,
		Result: quote.Build(entity.TierGuardian, 90000),
	})
	assert.Contains(t, text, "GUARDIAN")
	assert.Contains(t, text, "$349/month")
	assert.Contains(t, text, "$3,000 per day")
	assert.Contains(t, text, "$21,000 per week")

	text = RenderView(&entity.SessionView{
		Phase:       entity.FlowPhaseResulted,
		NotEligible: true,
		Result:      quote.Build(entity.TierNotEligible, 0),
	})
	assert.Contains(t, text, quote.HeadlineNotEligible)
	assert.Contains(t, text, "$100,000 annual revenue")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ErrGeneric},
		{fmt.Errorf("get: %w", entity.ErrSessionNotFound), ErrSessionNotFound},
		{entity.ErrFlowBusy, MsgAnalyzing},
		{fmt.Errorf("advance: %w", entity.ErrStepIncomplete), ErrInvalidInput},
		{entity.ErrNoResult, ErrInvalidState},
		{context.DeadlineExceeded, ErrTimeout},
		{errors.New("dial tcp: connection refused"), ErrServiceUnavailable},
		{errors.New("boom"), ErrGeneric},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "err=%v", tt.err)
	}
}
