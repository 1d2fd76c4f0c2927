package entity

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// QuestionKind tells the front-end which input widget a question needs
type QuestionKind string

const (
	QuestionKindSelect   QuestionKind = "select"   // Dropdown with enumerated options
	QuestionKindCurrency QuestionKind = "currency" // Free-form amount, digits only
	QuestionKindButtons  QuestionKind = "buttons"  // Binary or multi-choice buttons
	QuestionKindContact  QuestionKind = "contact"  // Contact form (business email)
)

func (k QuestionKind) Validate() error {
	switch k {
	case QuestionKindSelect, QuestionKindCurrency, QuestionKindButtons, QuestionKindContact:
		return nil
	default:
		return fmt.Errorf("unknown question kind: %s", k)
	}
}

// IsChoice reports whether answers are picked from an enumerated list.
// Choice answers advance the flow automatically.
func (k QuestionKind) IsChoice() bool {
	return k == QuestionKindSelect || k == QuestionKindButtons
}

// Question is one immutable step of the intake catalog
type Question struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Kind    QuestionKind `json:"type"`
	Options []string     `json:"options,omitempty"`
}

// HasOption reports whether value is one of the enumerated options
func (q Question) HasOption(value string) bool {
	return slices.Contains(q.Options, value)
}

// Well-known question identifiers
const (
	QuestionIDRevenue = "revenue"
	QuestionIDContact = "contact"
)

// Contact is the record collected by the contact-form step
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// HasEmail is a presence/shape check only: non-empty and containing '@'.
func (c *Contact) HasEmail() bool {
	return c != nil && c.Email != "" && strings.Contains(c.Email, "@")
}

// Answer is a recorded value for one question.
// Currency answers keep the canonical digit string in Value and the
// thousands-separated rendering in Display.
type Answer struct {
	Value   string   `json:"value,omitempty"`
	Display string   `json:"display,omitempty"`
	Contact *Contact `json:"contact,omitempty"`
}

// AnswerSet maps question ID to the recorded answer
type AnswerSet map[string]Answer

// Clone returns a copy that shares nothing mutable with the receiver
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for id, ans := range a {
		if ans.Contact != nil {
			c := *ans.Contact
			ans.Contact = &c
		}
		out[id] = ans
	}
	return out
}

// IDs returns answered question IDs in sorted order
func (a AnswerSet) IDs() []string {
	return slices.Sorted(maps.Keys(a))
}

// FlowPhase is the coarse state of an intake flow
type FlowPhase string

const (
	FlowPhaseCollecting FlowPhase = "COLLECTING" // Questions are being answered
	FlowPhaseAnalyzing  FlowPhase = "ANALYZING"  // Simulated analysis delay, no input accepted
	FlowPhaseResulted   FlowPhase = "RESULTED"   // Terminal, Outcome is set
)

// Tier is the classification outcome. Paid tiers are ordered by scope and price.
type Tier string

const (
	TierNotEligible Tier = "NOT_ELIGIBLE"
	TierGuardian    Tier = "GUARDIAN"
	TierDefender    Tier = "DEFENDER"
	TierFortress    Tier = "FORTRESS"
	TierEmpire      Tier = "EMPIRE"
)

var tierRanks = map[Tier]int{
	TierNotEligible: 0,
	TierGuardian:    1,
	TierDefender:    2,
	TierFortress:    3,
	TierEmpire:      4,
}

// Rank returns 1..4 for paid tiers, 0 for not-eligible and -1 for unknown values
func (t Tier) Rank() int {
	if r, ok := tierRanks[t]; ok {
		return r
	}
	return -1
}

func (t Tier) IsEligible() bool {
	return t.Rank() > 0
}

func (t Tier) Validate() error {
	if t.Rank() < 0 {
		return fmt.Errorf("unknown tier: %s", t)
	}
	return nil
}

// FlowState is the complete state of one intake flow. It is treated as a value:
// transitions build a new FlowState instead of editing fields in place.
type FlowState struct {
	Phase   FlowPhase `json:"phase"`
	Step    int       `json:"step"`
	Answers AnswerSet `json:"answers"`
	Outcome Tier      `json:"outcome,omitempty"`
}

// InitialFlowState is the state every session starts from
func InitialFlowState() FlowState {
	return FlowState{
		Phase:   FlowPhaseCollecting,
		Step:    1,
		Answers: AnswerSet{},
	}
}

// Clone returns a deep copy
func (s FlowState) Clone() FlowState {
	s.Answers = s.Answers.Clone()
	return s
}

// IsNotEligible reports the special not-eligible variant of the resulted phase
func (s FlowState) IsNotEligible() bool {
	return s.Phase == FlowPhaseResulted && s.Outcome == TierNotEligible
}

// Quote is the derived result shown to the prospect. Every number here is
// display-only and never participates in classification.
type Quote struct {
	Tier              Tier    `json:"tier"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`
	AnnualRevenue     float64 `json:"annual_revenue"`
	PricePerMonth     int64   `json:"price_per_month,omitempty"`
	DailyLoss         int64   `json:"daily_loss"`
	WeeklyLoss        int64   `json:"weekly_loss"`
	PriceDisplay      string  `json:"price_display,omitempty"`
	DailyLossDisplay  string  `json:"daily_loss_display"`
	WeeklyLossDisplay string  `json:"weekly_loss_display"`
	Headline          string  `json:"headline"`
	Message           string  `json:"message,omitempty"`
}
