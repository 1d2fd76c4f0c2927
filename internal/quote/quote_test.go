package quote

import (
	"math"
	"testing"

	"github.com/sellershield/intake-backend/internal/classifier"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossEstimates(t *testing.T) {
	assert.Equal(t, int64(3000), DailyLoss(90000))
	assert.Equal(t, int64(21000), WeeklyLoss(90000))

	// 50000/30 = 1666.67, 1666.67*7 = 11666.67
	assert.Equal(t, int64(1667), DailyLoss(50000))
	assert.Equal(t, int64(11667), WeeklyLoss(50000))

	assert.Equal(t, int64(0), DailyLoss(0))
	assert.Equal(t, int64(0), WeeklyLoss(-10))
}

func TestPrice_MatchesClassifierTiers(t *testing.T) {
	for _, b := range classifier.Bands() {
		_, ok := Price(b.Tier)
		assert.Equal(t, b.Tier.IsEligible(), ok, "tier %s", b.Tier)
	}

	p, ok := Price(entity.TierFortress)
	require.True(t, ok)
	assert.Equal(t, int64(2199), p)
}

func TestBuild(t *testing.T) {
	q := Build(entity.TierGuardian, 90000)

	assert.Equal(t, entity.TierGuardian, q.Tier)
	assert.Equal(t, int64(349), q.PricePerMonth)
	assert.Equal(t, "$349/month", q.PriceDisplay)
	assert.Equal(t, "$3,000", q.DailyLossDisplay)
	assert.Equal(t, "$21,000", q.WeeklyLossDisplay)
	assert.Equal(t, 1_080_000.0, q.AnnualRevenue)
	assert.Equal(t, HeadlineRecommended, q.Headline)
}

func TestBuild_NotEligible(t *testing.T) {
	q := Build(entity.TierNotEligible, 5000)

	assert.Zero(t, q.PricePerMonth)
	assert.Empty(t, q.PriceDisplay)
	assert.Equal(t, HeadlineNotEligible, q.Headline)
	assert.Equal(t, MessageNotEligible, q.Message)
}

func TestBuild_HugeRevenue(t *testing.T) {
	q := Build(entity.TierEmpire, math.Inf(1))

	assert.Positive(t, q.DailyLoss)
	assert.False(t, math.IsInf(q.AnnualRevenue, 0))
}

func TestBuild_AnnualRevenueMatchesClassifier(t *testing.T) {
	answers := entity.AnswerSet{entity.QuestionIDRevenue: {Value: "8333.34"}}

	q := Build(classifier.Classify(answers), classifier.MonthlyRevenue(answers))

	assert.Equal(t, entity.TierGuardian, q.Tier)
	assert.Equal(t, classifier.AnnualRevenue(answers), q.AnnualRevenue)
}
