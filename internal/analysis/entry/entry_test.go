package entry

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/patterns"
	"stock-risk-engine/internal/models"
)

func f(v float64) *float64 { return &v }

func levelsAround(price, support, resistance float64) patterns.SupportResistance {
	return patterns.SupportResistance{
		Price:                 price,
		NearestSupport:        f(support),
		NearestResistance:     f(resistance),
		SupportDistancePct:    f((price - support) / price * 100),
		ResistanceDistancePct: f((resistance - price) / price * 100),
	}
}

// bullishSet is a strong setup: bullish trend, stacked SMAs, heavy volume
// and rising OBV.
func bullishSet(price float64) *indicators.IndicatorSet {
	set := &indicators.IndicatorSet{Price: price, Bars: 250}
	set.Trend.Direction = models.Bullish
	set.Trend.SMA20 = f(price * 0.98)
	set.Trend.SMA50 = f(price * 0.95)
	set.Trend.SMA200 = f(price * 0.90)
	set.Trend.GoldenCross = true
	set.Momentum.MACD = f(1.2)
	set.Momentum.MACDSignal = f(0.8)
	set.Volatility.ATR = f(1)
	set.Volume.Ratio = f(2)
	set.Volume.OBVTrend = indicators.OBVRising
	return set
}

func TestRangePosition(t *testing.T) {
	assert.InDelta(t, 33.333, RangePosition(100, 95, 110), 0.01)
	assert.Equal(t, 0.0, RangePosition(90, 95, 110))
	assert.Equal(t, 100.0, RangePosition(120, 95, 110))
	assert.Equal(t, 50.0, RangePosition(100, 100, 100))
}

func TestAnalyze_RangePositionScenario(t *testing.T) {
	set := &indicators.IndicatorSet{Price: 100, Bars: 100}
	set.Trend.Direction = models.Neutral

	a := Analyze(set, levelsAround(100, 95, 110))

	assert.InDelta(t, 33.33, a.RangePositionPct, 0.01)
	assert.Equal(t, ZoneNeutral, a.Zone)
	assert.Equal(t, SourceNearest, a.SupportSource)
	assert.Equal(t, 95.0, a.Support)
	assert.Equal(t, 110.0, a.Resistance)
}

func TestAnalyze_ExcellentSetup(t *testing.T) {
	a := Analyze(bullishSet(100), levelsAround(100, 98.5, 130))

	// 2 trend + 1.5 support + 1 stack + 1 volume + 0.5 MACD + 0.5 golden + 0.5 OBV
	assert.InDelta(t, 7.0, a.ConfluenceScore, 1e-9)
	assert.Equal(t, ZoneDiscount, a.Zone)

	// max(100-2*1, 0.99*98.5)
	assert.InDelta(t, 98.0, a.StopLoss, 1e-9)
	assert.InDelta(t, 128.7, a.Target, 1e-9)
	assert.InDelta(t, 14.35, a.RiskReward, 1e-6)
	assert.Equal(t, "excellent", a.RiskRewardRating)

	assert.Equal(t, 100.0, a.QualityScore)
	assert.Equal(t, QualityExcellent, a.Quality)
	assert.True(t, a.IsGoodEntry)
	assert.InDelta(t, 10.0, a.PriceActionScore(), 1e-9)

	assert.InDelta(t, 99.485, a.SuggestedEntryLow, 1e-9)
	assert.InDelta(t, 101.455, a.SuggestedEntryHigh, 1e-9)
	assert.False(t, a.WaitForPullback)
}

func TestAnalyze_FallbacksWithoutLevels(t *testing.T) {
	set := &indicators.IndicatorSet{Price: 200, Bars: 60}
	set.Trend.Direction = models.Bearish

	a := Analyze(set, patterns.SupportResistance{Price: 200})

	assert.Equal(t, SourceFallback, a.SupportSource)
	assert.Equal(t, SourceFallback, a.ResistanceSource)
	assert.InDelta(t, 190.0, a.Support, 1e-9)
	assert.InDelta(t, 210.0, a.Resistance, 1e-9)
	assert.InDelta(t, 190.0, a.StopLoss, 1e-9)
	assert.InDelta(t, 210.0, a.Target, 1e-9)
	assert.InDelta(t, 1.0, a.RiskReward, 1e-9)
	assert.Equal(t, "poor", a.RiskRewardRating)
	assert.Zero(t, a.ConfluenceScore)
	assert.NotEmpty(t, a.Warnings)

	// 50 + 0 zone - 15 confluence - 15 R/R - 15 trend
	assert.InDelta(t, 5.0, a.QualityScore, 1e-9)
	assert.Equal(t, QualityPoor, a.Quality)
}

func TestAnalyze_PivotFallback(t *testing.T) {
	set := &indicators.IndicatorSet{Price: 100, Bars: 60}
	levels := patterns.SupportResistance{Price: 100, S1: 97, R1: 104}

	a := Analyze(set, levels)

	assert.Equal(t, SourcePivot, a.SupportSource)
	assert.Equal(t, 97.0, a.Support)
	assert.Equal(t, SourcePivot, a.ResistanceSource)
	assert.Equal(t, 104.0, a.Target)
}

func TestAnalyze_WaitForPullback(t *testing.T) {
	a := Analyze(bullishSet(100), levelsAround(100, 90, 130))

	assert.InDelta(t, 92.7, a.SuggestedEntryHigh, 1e-9)
	assert.True(t, a.WaitForPullback)
}

func TestCalculateRiskReward(t *testing.T) {
	assert.InDelta(t, 2.0, CalculateRiskReward(100, 95, 110), 1e-9)
	assert.Zero(t, CalculateRiskReward(100, 100, 110))
	assert.Zero(t, CalculateRiskReward(0, 95, 110))
}

// TestProperty_EntryBounds checks the bounded outputs for arbitrary level
// layouts around price.
func TestProperty_EntryBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Quality and range position stay in [0,100], stop below price", prop.ForAll(
		func(price, supportPct, resistancePct, atrPct float64) bool {
			set := bullishSet(price)
			set.Volatility.ATR = f(price * atrPct / 100)
			levels := levelsAround(price, price*(1-supportPct/100), price*(1+resistancePct/100))

			a := Analyze(set, levels)
			require.NotNil(t, a)

			return a.QualityScore >= 0 && a.QualityScore <= 100 &&
				a.RangePositionPct >= 0 && a.RangePositionPct <= 100 &&
				a.ConfluenceScore >= 0 &&
				a.StopLoss < price
		},
		gen.Float64Range(10, 5000),
		gen.Float64Range(0.1, 30),
		gen.Float64Range(0.1, 30),
		gen.Float64Range(0.1, 10),
	))

	properties.TestingRun(t)
}
