package entity

import "time"

type ResultFormat string

const (
	FormatJSON     ResultFormat = "json"
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type StartSessionRequest struct {
	CallbackURL string `json:"callback_url,omitempty"`
}

type SubmitAnswerRequest struct {
	Value   string   `json:"value"`
	Contact *Contact `json:"contact,omitempty"`
}

// ToAnswer converts the request body into a raw, not yet normalized answer
func (r *SubmitAnswerRequest) ToAnswer() Answer {
	return Answer{
		Value:   r.Value,
		Contact: r.Contact,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type QuestionDTO struct {
	ID      string       `json:"id"`
	Step    int          `json:"step"`
	Title   string       `json:"title"`
	Type    QuestionKind `json:"type"`
	Options []string     `json:"options,omitempty"`
}

type ProgressDTO struct {
	Step    int     `json:"step"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
}

// SessionView is everything a front-end needs to render the current screen
type SessionView struct {
	ID               string       `json:"session_id"`
	Phase            FlowPhase    `json:"phase"`
	Progress         *ProgressDTO `json:"progress,omitempty"`
	CurrentQuestion  *QuestionDTO `json:"current_question,omitempty"`
	Answers          AnswerSet    `json:"answers"`
	CanAdvance       bool         `json:"can_advance"`
	CanRetreat       bool         `json:"can_retreat"`
	AnalysisMessages []string     `json:"analysis_messages,omitempty"`
	NotEligible      bool         `json:"not_eligible"`
	Result           *Quote       `json:"result,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type CatalogDTO struct {
	Total     int           `json:"total"`
	Questions []QuestionDTO `json:"questions"`
}
