package session

import (
	"fmt"
	"math"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/intake"
)

// AnalysisMessages are shown, in order, while the analysis runs
var AnalysisMessages = []string{
	"Evaluating business metrics...",
	"Analyzing risk profile...",
	"Matching optimal protection tier...",
}

func (uc *IntakeUsecase) buildView(s *liveSession, state entity.FlowState) *entity.SessionView {
	view := &entity.SessionView{
		ID:        s.id,
		Phase:     state.Phase,
		Progress:  progress(state.Step, uc.catalog.Len()),
		Answers:   state.Answers.Clone(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.lastUpdate(),
	}

	switch state.Phase {
	case entity.FlowPhaseCollecting:
		q, ok := uc.catalog.At(state.Step)
		if ok {
			dto := toQuestionDTO(q, state.Step)
			view.CurrentQuestion = &dto
			ans, answered := state.Answers[q.ID]
			view.CanAdvance = answered && intake.IsValidAnswer(q, ans)
		}
		view.CanRetreat = state.Step > 1
	case entity.FlowPhaseAnalyzing:
		view.AnalysisMessages = append([]string(nil), AnalysisMessages...)
	case entity.FlowPhaseResulted:
		view.NotEligible = state.IsNotEligible()
		view.Result = buildQuote(state)
	}

	return view
}

func progress(step, total int) *entity.ProgressDTO {
	if total <= 0 {
		return nil
	}
	return &entity.ProgressDTO{
		Step:    step,
		Total:   total,
		Percent: math.Round(float64(step)/float64(total)*1000) / 10,
		Label:   fmt.Sprintf("Step %d of %d", step, total),
	}
}

func toQuestionDTO(q entity.Question, step int) entity.QuestionDTO {
	return entity.QuestionDTO{
		ID:      q.ID,
		Step:    step,
		Title:   q.Title,
		Type:    q.Kind,
		Options: append([]string(nil), q.Options...),
	}
}
