package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"stock-risk-engine/internal/analysis"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/patterns"
	"stock-risk-engine/internal/models"
)

func pct(v float64) *float64 { return &v }

func TestScore_WeightedComposite(t *testing.T) {
	set := indicatorSet(8, 6, 4, 5, models.Bullish, indicators.OBVRising)
	cs := Score(set, patterns.SupportResistance{Price: 100}, 7)

	assert.InDelta(t, 8*0.25+6*0.30+4*0.10+5*0.15+7*0.20, cs.Composite, 1e-9)
	assert.Equal(t, analysis.Neutral, cs.Signal)
}

func TestScore_SplitVotesHaveNoMajority(t *testing.T) {
	// trend +1, momentum -1, OBV +1, price action -1
	set := indicatorSet(5, 3, 5, 5, models.Bullish, indicators.OBVRising)
	cs := Score(set, patterns.SupportResistance{Price: 100}, 2)

	assert.Equal(t, 0, cs.Majority)
	assert.Equal(t, 0.0, cs.Agreement)
	assert.Equal(t, BaseConfidence, cs.Confidence)
}

func TestScore_BuySignalNearSupportGainsConfidence(t *testing.T) {
	set := indicatorSet(10, 10, 10, 10, models.Bullish, indicators.OBVRising)
	levels := patterns.SupportResistance{Price: 100, SupportDistancePct: pct(1.5), ResistanceDistancePct: pct(10)}

	cs := Score(set, levels, 10)

	assert.Equal(t, analysis.StrongBuy, cs.Signal)
	assert.Equal(t, 100.0, cs.Confidence) // 95 + 5
	assert.Len(t, cs.Notes, 1)
}

func TestScore_BuySignalUnderResistanceLosesConfidence(t *testing.T) {
	set := indicatorSet(10, 10, 10, 10, models.Bullish, indicators.OBVRising)
	levels := patterns.SupportResistance{Price: 100, SupportDistancePct: pct(10), ResistanceDistancePct: pct(2)}

	cs := Score(set, levels, 10)

	assert.Equal(t, 85.0, cs.Confidence)
}

func TestScore_SellSignalOnSupportLosesConfidence(t *testing.T) {
	set := indicatorSet(0, 0, 0, 0, models.Bearish, indicators.OBVFalling)
	levels := patterns.SupportResistance{Price: 100, SupportDistancePct: pct(1), ResistanceDistancePct: pct(2.5)}

	cs := Score(set, levels, 0)

	assert.Equal(t, analysis.StrongSell, cs.Signal)
	assert.Equal(t, -1, cs.Majority)
	assert.Equal(t, 90.0, cs.Confidence) // 95 + 5 - 10
}

func TestNeutralScore(t *testing.T) {
	cs := NeutralScore()
	assert.Equal(t, 5.0, cs.Composite)
	assert.Equal(t, analysis.Neutral, cs.Signal)
	assert.Zero(t, cs.Confidence)
}
