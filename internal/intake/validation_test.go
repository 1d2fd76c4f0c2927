package intake

import (
	"testing"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		raw         string
		wantValue   string
		wantDisplay string
	}{
		{"50000", "50000", "50,000"},
		{"$1,234,567", "1234567", "1,234,567"},
		{"007", "7", "7"},
		{"12.50", "1250", "1,250"},
		{"abc", "", ""},
		{"", "", ""},
		{"0", "0", "0"},
	}

	for _, tt := range tests {
		value, display := NormalizeCurrency(tt.raw)
		assert.Equal(t, tt.wantValue, value, "raw=%q", tt.raw)
		assert.Equal(t, tt.wantDisplay, display, "raw=%q", tt.raw)
	}
}

func TestNormalizeAnswer_Contact(t *testing.T) {
	q := entity.Question{ID: entity.QuestionIDContact, Kind: entity.QuestionKindContact}

	ans, err := NormalizeAnswer(q, entity.Answer{Value: "a@b"})
	require.NoError(t, err)
	require.NotNil(t, ans.Contact)
	assert.Equal(t, "a@b", ans.Contact.Email)

	ans, err = NormalizeAnswer(q, entity.Answer{Contact: &entity.Contact{Email: "x@y.z", Name: "Pat"}})
	require.NoError(t, err)
	assert.Equal(t, "Pat", ans.Contact.Name)
	assert.Equal(t, "x@y.z", ans.Value)
}

func TestIsValidAnswer(t *testing.T) {
	choice := entity.Question{ID: "q", Kind: entity.QuestionKindButtons, Options: []string{"Yes", "No"}}
	currency := entity.Question{ID: "r", Kind: entity.QuestionKindCurrency}
	contact := entity.Question{ID: "c", Kind: entity.QuestionKindContact}

	assert.True(t, IsValidAnswer(choice, entity.Answer{Value: "Yes"}))
	assert.False(t, IsValidAnswer(choice, entity.Answer{Value: "Maybe"}))

	assert.True(t, IsValidAnswer(currency, entity.Answer{Value: "1"}))
	assert.False(t, IsValidAnswer(currency, entity.Answer{}))

	assert.False(t, IsValidAnswer(contact, entity.Answer{}))
	assert.False(t, IsValidAnswer(contact, entity.Answer{Contact: &entity.Contact{Email: "not-an-email"}}))
	assert.True(t, IsValidAnswer(contact, entity.Answer{Contact: &entity.Contact{Email: "a@b"}}))
}
