package validator

import (
	"strings"
	"testing"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestValidateStartSession(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		url     string
		wantErr error
	}{
		{"", nil},
		{"https://crm.example.com/hooks/intake", nil},
		{"ftp://crm.example.com", entity.ErrInvalidFormat},
		{"/relative/path", entity.ErrInvalidFormat},
		{"https://" + strings.Repeat("a", maxURLLength), entity.ErrInvalidParameter},
	}

	for _, tt := range tests {
		err := v.ValidateStartSession(&entity.StartSessionRequest{CallbackURL: tt.url})
		if tt.wantErr == nil {
			assert.NoError(t, err, tt.url)
		} else {
			assert.ErrorIs(t, err, tt.wantErr, tt.url)
		}
	}
}

func TestValidateSubmitAnswer(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSubmitAnswer(&entity.SubmitAnswerRequest{Value: "Yes"}))
	assert.NoError(t, v.ValidateSubmitAnswer(&entity.SubmitAnswerRequest{
		Contact: &entity.Contact{Email: "a@b.c"},
	}))

	// cleared fields are gated by the flow, not rejected here
	assert.NoError(t, v.ValidateSubmitAnswer(&entity.SubmitAnswerRequest{Value: ""}))
	assert.NoError(t, v.ValidateSubmitAnswer(&entity.SubmitAnswerRequest{Value: "  "}))
	assert.ErrorIs(t, v.ValidateSubmitAnswer(&entity.SubmitAnswerRequest{
		Value: strings.Repeat("9", maxAnswerLength+1),
	}), entity.ErrInvalidParameter)
	assert.ErrorIs(t, v.ValidateSubmitAnswer(&entity.SubmitAnswerRequest{
		Contact: &entity.Contact{Name: strings.Repeat("x", maxAnswerLength+1)},
	}), entity.ErrInvalidParameter)
}
