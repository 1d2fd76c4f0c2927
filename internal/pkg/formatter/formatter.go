package formatter

import (
	"fmt"

	"github.com/sellershield/intake-backend/internal/entity"
)

const baseTitle = "Seller Protection Assessment"

type Formatter interface {
	Format(q *entity.Quote) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatJSON:
		return NewJSONFormatter(), nil
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// row is one label/value line of the report body
type row struct {
	label string
	value string
}

// reportRows lists the result in display order; every formatter renders the same rows
func reportRows(q *entity.Quote) []row {
	if !q.Tier.IsEligible() {
		return []row{
			{"Outcome", q.Headline},
			{"Details", q.Message},
		}
	}

	return []row{
		{q.Headline, string(q.Tier)},
		{"Price", q.PriceDisplay},
		{"Daily loss without protection", q.DailyLossDisplay},
		{"Weekly loss without protection", q.WeeklyLossDisplay},
	}
}
