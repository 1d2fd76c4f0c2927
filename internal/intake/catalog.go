package intake

import (
	"fmt"

	"github.com/sellershield/intake-backend/internal/entity"
)

// Catalog is the fixed, ordered list of intake questions.
// Position in the catalog is the 1-based step index.
type Catalog struct {
	questions []entity.Question
	index     map[string]int
}

// NewCatalog validates the question list and builds a catalog from a copy of it
func NewCatalog(questions []entity.Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, entity.ErrEmptyCatalog
	}

	c := &Catalog{
		questions: make([]entity.Question, 0, len(questions)),
		index:     make(map[string]int, len(questions)),
	}

	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question %d has no id", entity.ErrInvalidQuestion, i+1)
		}
		if _, exists := c.index[q.ID]; exists {
			return nil, fmt.Errorf("%w: %s", entity.ErrDuplicateID, q.ID)
		}
		if err := q.Kind.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", entity.ErrInvalidQuestion, q.ID, err)
		}
		if q.Kind.IsChoice() && len(q.Options) == 0 {
			return nil, fmt.Errorf("%w: %s: %s question needs options", entity.ErrInvalidQuestion, q.ID, q.Kind)
		}

		q.Options = append([]string(nil), q.Options...)
		c.questions = append(c.questions, q)
		c.index[q.ID] = i + 1
	}

	if err := c.checkRequired(); err != nil {
		return nil, err
	}

	return c, nil
}

// checkRequired makes sure the classifier input exists. The contact step is
// optional, but when present it must collect a contact.
func (c *Catalog) checkRequired() error {
	revenue, _, ok := c.Lookup(entity.QuestionIDRevenue)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrMissingQuestion, entity.QuestionIDRevenue)
	}
	if revenue.Kind != entity.QuestionKindCurrency {
		return fmt.Errorf("%w: %s must be a %s question, got %s",
			entity.ErrInvalidQuestion, revenue.ID, entity.QuestionKindCurrency, revenue.Kind)
	}

	if contact, _, ok := c.Lookup(entity.QuestionIDContact); ok && contact.Kind != entity.QuestionKindContact {
		return fmt.Errorf("%w: %s must be a %s question, got %s",
			entity.ErrInvalidQuestion, contact.ID, entity.QuestionKindContact, contact.Kind)
	}

	return nil
}

// MustCatalog is NewCatalog for static question lists
func MustCatalog(questions []entity.Question) *Catalog {
	c, err := NewCatalog(questions)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns N, the number of steps
func (c *Catalog) Len() int {
	return len(c.questions)
}

// At returns the question for a 1-based step
func (c *Catalog) At(step int) (entity.Question, bool) {
	if step < 1 || step > len(c.questions) {
		return entity.Question{}, false
	}
	return c.questions[step-1], true
}

// Lookup returns the question with the given id and its step
func (c *Catalog) Lookup(id string) (entity.Question, int, bool) {
	step, ok := c.index[id]
	if !ok {
		return entity.Question{}, 0, false
	}
	return c.questions[step-1], step, true
}

// Questions returns a copy of the ordered question list
func (c *Catalog) Questions() []entity.Question {
	out := make([]entity.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// DefaultQuestions is the built-in seller intake questionnaire
func DefaultQuestions() []entity.Question {
	return []entity.Question{
		{ID: "asins", Title: "How many ASINs are you currently managing?", Kind: entity.QuestionKindSelect,
			Options: []string{"1-10", "11-50", "51-100", "101-500", "500+"}},
		{ID: entity.QuestionIDRevenue, Title: "What is your average monthly revenue on Amazon over the past 12 months?", Kind: entity.QuestionKindCurrency},
		{ID: "violations", Title: "How many violations do you receive per month on average?", Kind: entity.QuestionKindSelect,
			Options: []string{"0", "1-2", "3-5", "6-10", "10+"}},
		{ID: "suspendedBefore", Title: "Have you been suspended before?", Kind: entity.QuestionKindButtons,
			Options: []string{"Yes", "No"}},
		{ID: "sellerType", Title: "What type of seller are you?", Kind: entity.QuestionKindButtons,
			Options: []string{"Private Label", "Wholesale", "Hybrid", "Dropshipping", "Online/Retail Arbitrage"}},
		{ID: "brandRegistry", Title: "Are you enrolled in Amazon Brand Registry?", Kind: entity.QuestionKindButtons,
			Options: []string{"Yes", "No"}},
		{ID: "fulfillment", Title: "How do you fulfill your Amazon orders?", Kind: entity.QuestionKindButtons,
			Options: []string{"FBA (Fulfilled by Amazon)", "FBM (Fulfilled by Merchant)", "Both FBA and FBM"}},
		{ID: "accountAge", Title: "How long has your Amazon seller account been active?", Kind: entity.QuestionKindSelect,
			Options: []string{"Less than 6 months", "6-12 months", "1-2 years", "2-5 years", "5+ years"}},
		{ID: "ipComplaints", Title: "How many Intellectual Property complaints have you received in the past 6 months?", Kind: entity.QuestionKindSelect,
			Options: []string{"None", "1-2", "3-5", "6-10", "10+"}},
		{ID: "violationTypes", Title: "Have you received any common violations (Authenticity, Restricted, Safety, etc.) in the past 3 months?", Kind: entity.QuestionKindButtons,
			Options: []string{"Yes", "No"}},
		{ID: entity.QuestionIDContact, Title: "Contact Information", Kind: entity.QuestionKindContact},
	}
}
