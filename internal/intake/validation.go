package intake

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sellershield/intake-backend/internal/entity"
)

// FilterDigits drops every character that is not an ASCII digit
func FilterDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCurrency filters raw input to digits and returns the canonical
// amount (no leading zeros) together with its thousands-separated rendering.
// Both are empty when the input holds no digits.
func NormalizeCurrency(raw string) (value, display string) {
	digits := FilterDigits(raw)
	if digits == "" {
		return "", ""
	}

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return "", ""
	}
	return n.String(), humanize.BigComma(n)
}

// NormalizeAnswer checks an incoming answer against its question shape and
// converts it to the form stored in the answer set.
func NormalizeAnswer(q entity.Question, raw entity.Answer) (entity.Answer, error) {
	switch q.Kind {
	case entity.QuestionKindSelect, entity.QuestionKindButtons:
		if !q.HasOption(raw.Value) {
			return entity.Answer{}, fmt.Errorf("%w: %q for %s", entity.ErrInvalidOption, raw.Value, q.ID)
		}
		return entity.Answer{Value: raw.Value}, nil

	case entity.QuestionKindCurrency:
		value, display := NormalizeCurrency(raw.Value)
		return entity.Answer{Value: value, Display: display}, nil

	case entity.QuestionKindContact:
		contact := entity.Contact{Email: raw.Value}
		if raw.Contact != nil {
			contact = *raw.Contact
		}
		return entity.Answer{Value: contact.Email, Contact: &contact}, nil

	default:
		return entity.Answer{}, fmt.Errorf("%w: %s", entity.ErrInvalidQuestion, q.ID)
	}
}

// IsValidAnswer reports whether a recorded answer lets the flow move past q
func IsValidAnswer(q entity.Question, ans entity.Answer) bool {
	switch q.Kind {
	case entity.QuestionKindSelect, entity.QuestionKindButtons:
		return q.HasOption(ans.Value)
	case entity.QuestionKindCurrency:
		return ans.Value != ""
	case entity.QuestionKindContact:
		return ans.Contact.HasEmail()
	default:
		return false
	}
}
