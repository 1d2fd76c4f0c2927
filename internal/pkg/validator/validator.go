package validator

import (
	"fmt"
	"net/url"

	"github.com/sellershield/intake-backend/internal/entity"
)

const (
	maxAnswerLength = 512
	maxURLLength    = 2048
)

// Validator checks request bodies before they reach the use case
type Validator struct {
	maxAnswerLength int
}

func NewValidator() *Validator {
	return &Validator{maxAnswerLength: maxAnswerLength}
}

// ValidateStartSession validates StartSessionRequest. The callback URL is
// optional but must be an absolute http(s) URL when present.
func (v *Validator) ValidateStartSession(req *entity.StartSessionRequest) error {
	if req.CallbackURL == "" {
		return nil
	}

	if len(req.CallbackURL) > maxURLLength {
		return fmt.Errorf("%w: callback_url is too long", entity.ErrInvalidParameter)
	}

	u, err := url.Parse(req.CallbackURL)
	if err != nil {
		return fmt.Errorf("%w: callback_url: %v", entity.ErrInvalidFormat, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: callback_url must use http or https", entity.ErrInvalidFormat)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: callback_url must be absolute", entity.ErrInvalidFormat)
	}

	return nil
}

// ValidateSubmitAnswer only bounds field sizes. An empty value is accepted: a
// cleared currency or contact field disables advancing, and the flow itself
// rejects empty choices.
func (v *Validator) ValidateSubmitAnswer(req *entity.SubmitAnswerRequest) error {
	if len(req.Value) > v.maxAnswerLength {
		return fmt.Errorf("%w: value exceeds %d characters", entity.ErrInvalidParameter, v.maxAnswerLength)
	}

	if req.Contact != nil {
		for name, field := range map[string]string{
			"contact.email": req.Contact.Email,
			"contact.name":  req.Contact.Name,
			"contact.phone": req.Contact.Phone,
		} {
			if len(field) > v.maxAnswerLength {
				return fmt.Errorf("%w: %s exceeds %d characters", entity.ErrInvalidParameter, name, v.maxAnswerLength)
			}
		}
	}

	return nil
}
