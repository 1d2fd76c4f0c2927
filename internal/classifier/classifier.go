// Package classifier maps a completed intake answer set to a service tier.
//
// Only the declared monthly revenue participates. The other collected answers
// are recorded for the sales team but are not read here.
package classifier

import (
	"math"
	"strconv"
	"strings"

	"github.com/sellershield/intake-backend/internal/entity"
)

// MonthsPerYear annualizes the monthly revenue answer
const MonthsPerYear = 12

// Band is a half-open annual revenue range [Min, Max)
type Band struct {
	Min  float64
	Max  float64
	Tier entity.Tier
}

// Contains reports whether annual falls inside the band
func (b Band) Contains(annual float64) bool {
	return annual >= b.Min && annual < b.Max
}

// ordered lowest to highest, first match wins
var bands = []Band{
	{Min: 0, Max: 100_000, Tier: entity.TierNotEligible},
	{Min: 100_000, Max: 1_000_000, Tier: entity.TierGuardian},
	{Min: 1_000_000, Max: 5_000_000, Tier: entity.TierDefender},
	{Min: 5_000_000, Max: 20_000_000, Tier: entity.TierFortress},
	{Min: 20_000_000, Max: math.Inf(1), Tier: entity.TierEmpire},
}

// Bands returns a copy of the threshold table
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// Classify returns the outcome for an answer set. It is deterministic and has
// no side effects.
func Classify(answers entity.AnswerSet) entity.Tier {
	return ForAnnualRevenue(AnnualRevenue(answers))
}

// ForAnnualRevenue applies the threshold bands
func ForAnnualRevenue(annual float64) entity.Tier {
	for _, b := range bands {
		if b.Contains(annual) {
			return b.Tier
		}
	}
	return entity.TierNotEligible
}

// MonthlyRevenue extracts the revenue answer. Absent or unparsable input is zero.
func MonthlyRevenue(answers entity.AnswerSet) float64 {
	ans, ok := answers[entity.QuestionIDRevenue]
	if !ok {
		return 0
	}
	return ParseAmount(ans.Value)
}

// AnnualRevenue is MonthlyRevenue × 12
func AnnualRevenue(answers entity.AnswerSet) float64 {
	return MonthlyRevenue(answers) * MonthsPerYear
}

// ParseAmount strips everything but digits, '.' and '-' and parses the rest.
// Unparsable, NaN and negative amounts yield zero. Amounts too large for a
// float64 yield +Inf.
func ParseAmount(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil && !math.IsInf(v, 1) {
		return 0
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
