// Package quote derives the numbers shown on the result screen: the monthly
// price of the recommended tier and the estimated loss of a suspension.
package quote

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/sellershield/intake-backend/internal/classifier"
	"github.com/sellershield/intake-backend/internal/entity"
)

const (
	daysPerMonth = 30
	daysPerWeek  = 7

	// loss estimates above this are clamped before integer conversion
	maxDisplayAmount = 1e15
)

const (
	HeadlineRecommended = "Your Recommended Plan"
	HeadlineNotEligible = "Minimum Revenue Not Met"

	MessageNotEligible = "Our structured protection plans start at $100,000 annual revenue. " +
		"Please contact us for custom options tailored to your business needs."
)

// monthly prices in USD, keyed by the tiers the classifier emits
var prices = map[entity.Tier]int64{
	entity.TierGuardian: 349,
	entity.TierDefender: 899,
	entity.TierFortress: 2199,
	entity.TierEmpire:   5999,
}

// Price returns the monthly price of a paid tier
func Price(t entity.Tier) (int64, bool) {
	p, ok := prices[t]
	return p, ok
}

// DailyLoss estimates revenue lost per day of suspension
func DailyLoss(monthlyRevenue float64) int64 {
	return roundDisplay(monthlyRevenue / daysPerMonth)
}

// WeeklyLoss is seven days of DailyLoss, rounded once
func WeeklyLoss(monthlyRevenue float64) int64 {
	return roundDisplay(monthlyRevenue / daysPerMonth * daysPerWeek)
}

// USD renders a whole-dollar amount with thousands separators
func USD(amount int64) string {
	return "$" + humanize.Comma(amount)
}

// Build assembles the result screen for an outcome
func Build(tier entity.Tier, monthlyRevenue float64) *entity.Quote {
	daily := DailyLoss(monthlyRevenue)
	weekly := WeeklyLoss(monthlyRevenue)

	q := &entity.Quote{
		Tier:              tier,
		MonthlyRevenue:    monthlyRevenue,
		AnnualRevenue:     monthlyRevenue * classifier.MonthsPerYear,
		DailyLoss:         daily,
		WeeklyLoss:        weekly,
		DailyLossDisplay:  USD(daily),
		WeeklyLossDisplay: USD(weekly),
	}
	if math.IsInf(q.AnnualRevenue, 0) {
		q.MonthlyRevenue = maxDisplayAmount
		q.AnnualRevenue = maxDisplayAmount * classifier.MonthsPerYear
	}

	price, ok := Price(tier)
	if !ok {
		q.Headline = HeadlineNotEligible
		q.Message = MessageNotEligible
		return q
	}

	q.Headline = HeadlineRecommended
	q.PricePerMonth = price
	q.PriceDisplay = USD(price) + "/month"
	return q
}

func roundDisplay(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > maxDisplayAmount {
		v = maxDisplayAmount
	}
	return int64(math.Round(v))
}
