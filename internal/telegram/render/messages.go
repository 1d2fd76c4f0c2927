package render

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/sellershield/intake-backend/internal/entity"
)

const (
	// Welcome messages
	MsgWelcome = `👋 Hi! I will help you find the right protection plan for your Amazon store.

Answer a few quick questions about your business and I will:
• Estimate what a suspension would cost you
• Recommend a plan that fits your revenue`

	MsgHelp = `🤖 Bot commands:

/start - Start a new assessment
/help - Show this help
/cancel - Cancel the current assessment

How it works:
1. Pick an answer or type it when asked
2. Use "Back" to change a previous answer
3. Get your recommended plan and download the report`

	// Question display
	MsgQuestion = `📋 %s · %d%%

❓ %s`

	MsgPromptCurrency = `✍️ Type the amount in USD, digits only (for example 50000).`
	MsgPromptContact  = `✍️ Type your business email so we can send you the details.`
	MsgCurrentAnswer  = `Current answer: %s`

	// Result
	MsgResult = `✅ %s

🛡 Plan: %s
💵 Price: %s

A suspension could cost you about %s per day, or %s per week.

Download the full report:`

	MsgSessionFinished = `👋 Assessment cancelled.

To start a new one, press /start`

	MsgConfirmCancel = `⚠️ Are you sure? All answers will be lost.`
	MsgCancelAborted = `👌 Continuing where you left off.`
	MsgNoSession     = `There is no active assessment. Use /start`
	MsgUseButtons    = `👆 Please pick one of the options above.`
	MsgAnalyzing     = `⏳ Please wait, the analysis is still running.`
	MsgPreparingFile = `⏳ Preparing the report...`

	// Errors
	ErrGeneric            = `❌ Something went wrong. Try again or press /start`
	ErrSessionNotFound    = `❌ Your assessment has expired. Start a new one with /start`
	ErrInvalidState       = `❌ That action is not available right now.`
	ErrInvalidInput       = `❌ That answer does not look right. Please try again.`
	ErrUnknownCommand     = `❌ Unknown command. Use /start`
	ErrNetworkIssue       = `❌ Connection problem. Please try again later.`
	ErrServiceUnavailable = `❌ The service is temporarily unavailable. Try again in a few minutes.`
	ErrTimeout            = `❌ The operation took too long. Please try again.`
	ErrInvalidCallback    = `❌ Invalid data`
)

// RenderView renders the screen for the current state of a session
func RenderView(view *entity.SessionView) string {
	switch view.Phase {
	case entity.FlowPhaseAnalyzing:
		return RenderAnalysis(view.AnalysisMessages)
	case entity.FlowPhaseResulted:
		if view.Result == nil {
			return ErrGeneric
		}
		if view.NotEligible {
			return RenderNotEligible(view.Result)
		}
		return RenderResult(view.Result)
	default:
		return RenderQuestion(view)
	}
}

// RenderQuestion formats the current question with its progress line
func RenderQuestion(view *entity.SessionView) string {
	q := view.CurrentQuestion
	if q == nil || view.Progress == nil {
		return ErrInvalidState
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(MsgQuestion, view.Progress.Label, int(view.Progress.Percent), q.Title))

	switch q.Type {
	case entity.QuestionKindCurrency:
		sb.WriteString("\n\n" + MsgPromptCurrency)
	case entity.QuestionKindContact:
		sb.WriteString("\n\n" + MsgPromptContact)
	}

	if !q.Type.IsChoice() {
		if current := displayAnswer(view.Answers[q.ID]); current != "" {
			sb.WriteString("\n\n" + fmt.Sprintf(MsgCurrentAnswer, current))
		}
	}

	return sb.String()
}

func displayAnswer(a entity.Answer) string {
	switch {
	case a.Contact != nil:
		return a.Contact.Email
	case a.Display != "":
		return "$" + a.Display
	default:
		return a.Value
	}
}

// RenderAnalysis formats the analysis screen
func RenderAnalysis(lines []string) string {
	var sb strings.Builder
	sb.WriteString("🔍 Analyzing your answers...\n")
	for _, l := range lines {
		sb.WriteString("\n• " + l)
	}
	return sb.String()
}

// RenderResult formats the recommended plan screen
func RenderResult(q *entity.Quote) string {
	return fmt.Sprintf(MsgResult,
		q.Headline,
		q.Tier,
		q.PriceDisplay,
		q.DailyLossDisplay,
		q.WeeklyLossDisplay,
	)
}

// RenderNotEligible formats the minimum-revenue screen
func RenderNotEligible(q *entity.Quote) string {
	return fmt.Sprintf("😔 %s\n\n%s", q.Headline, q.Message)
}

// ClassifyError analyzes an error and returns an appropriate user-friendly message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	switch {
	case errors.Is(err, entity.ErrSessionNotFound), errors.Is(err, entity.ErrFlowClosed):
		return ErrSessionNotFound
	case errors.Is(err, entity.ErrFlowBusy):
		return MsgAnalyzing
	case errors.Is(err, entity.ErrInvalidOption),
		errors.Is(err, entity.ErrStepIncomplete),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrMissingField):
		return ErrInvalidInput
	case errors.Is(err, entity.ErrFlowFinished),
		errors.Is(err, entity.ErrNoResult),
		errors.Is(err, entity.ErrUnknownQuestion):
		return ErrInvalidState
	}

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkIssue
	}

	if strings.Contains(err.Error(), "connection refused") {
		return ErrServiceUnavailable
	}

	// Default to generic error
	return ErrGeneric
}
