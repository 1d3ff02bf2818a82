package risk

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stock-risk-engine/internal/analysis/entry"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/mtf"
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

// strongSet scores the maximum on every positive layer and nothing on the
// penalties.
func strongSet() *indicators.IndicatorSet {
	set := &indicators.IndicatorSet{Price: 100, Bars: 250}
	set.Trend.Direction = models.Bullish
	set.Trend.SMA20 = f(98)
	set.Trend.SMA50 = f(95)
	set.Trend.SMA200 = f(90)
	set.Trend.EMA20 = f(98)
	set.Trend.ADX = f(30)
	set.Trend.GoldenCross = true
	set.Momentum.RSI = f(60)
	set.Momentum.RSIPrev = f(55)
	set.Momentum.MACD = f(1.2)
	set.Momentum.MACDSignal = f(0.8)
	set.Volatility.BBUpper = f(106)
	set.Volatility.BBPercentB = f(0.6)
	set.Volatility.ATR = f(1)
	set.Volatility.ATRPercent = f(1)
	set.Volume.Ratio = f(2)
	set.Volume.OBVTrend = indicators.OBVRising
	return set
}

func alignedResult(a mtf.Alignment) *mtf.Result {
	r := mtf.NeutralResult()
	r.Alignment = a
	r.Multiplier = mtf.Multiplier(a)
	return r
}

func TestAssess_StrongSetupLayers(t *testing.T) {
	set := strongSet()
	levels := levelsAround(100, 98.5, 130)
	ent := entry.Analyze(set, levels)

	a := Assess(Input{Indicators: set, Levels: levels, Entry: ent})

	assert.Equal(t, 100.0, a.Layers.Structure)
	assert.Equal(t, 20.0, a.Layers.Momentum)
	assert.Equal(t, 20.0, a.Layers.Volume)
	assert.Zero(t, a.Layers.Overextension)
	assert.Zero(t, a.Layers.Volatility)
	assert.InDelta(t, 80.0, a.PreMFTAScore, 1e-9)
	assert.Equal(t, 1.0, a.MFTAMultiplier)
	assert.Equal(t, a.PreMFTAScore, a.RiskScore)
	assert.Equal(t, "low", a.RiskLevel)
}

// A risk score of 85 with a favourable risk/reward is a BUY backed by an
// excellent entry.
func TestAssess_BuyWithExcellentEntry(t *testing.T) {
	set := strongSet()
	levels := levelsAround(100, 98.5, 130)
	ent := entry.Analyze(set, levels)
	require.Equal(t, entry.QualityExcellent, ent.Quality)

	decision, base := Decide(85, ent)
	assert.Equal(t, Buy, decision)
	assert.Equal(t, 85.0, base)

	a := Assess(Input{Indicators: set, Levels: levels, Entry: ent, MTF: alignedResult(mtf.AlignedBullish)})
	assert.InDelta(t, 96.0, a.RiskScore, 1e-9)
	assert.Equal(t, Buy, a.Decision)
	assert.Equal(t, MaxConfidence, a.DecisionConfidence)
	assert.NotEmpty(t, a.BullishFactors)
}

func TestDecide(t *testing.T) {
	excellent := &entry.Analysis{RiskReward: 3.5, RiskRewardRating: "excellent"}
	acceptable := &entry.Analysis{RiskReward: 1.6, RiskRewardRating: "acceptable"}
	poor := &entry.Analysis{RiskReward: 0.8, RiskRewardRating: "poor"}

	cases := []struct {
		name  string
		score float64
		ent   *entry.Analysis
		want  Decision
		base  float64
	}{
		{"strong favourable", 80, excellent, Buy, 85},
		{"acceptable rr", 72, acceptable, Buy, 75},
		{"moderate favourable", 60, excellent, Buy, 65},
		{"strong but poor rr", 85, poor, Hold, 60},
		{"middling", 45, excellent, Hold, 55},
		{"weak", 25, excellent, Avoid, 60},
		{"very weak", 10, poor, Sell, 70},
		{"no entry", 90, nil, Hold, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, base := Decide(tc.score, tc.ent)
			assert.Equal(t, tc.want, d)
			assert.Equal(t, tc.base, base)
		})
	}
}

func TestMFTAAdjustment(t *testing.T) {
	assert.Equal(t, 10.0, mftaAdjustment(Buy, mtf.AlignedBullish))
	assert.Equal(t, -10.0, mftaAdjustment(Buy, mtf.AlignedBearish))
	assert.Equal(t, 10.0, mftaAdjustment(Sell, mtf.AlignedBearish))
	assert.Equal(t, -10.0, mftaAdjustment(Avoid, mtf.AlignedBullish))
	assert.Equal(t, -5.0, mftaAdjustment(Buy, mtf.Mixed))
	assert.Equal(t, -5.0, mftaAdjustment(Hold, mtf.Mixed))
	assert.Zero(t, mftaAdjustment(Hold, mtf.AlignedBullish))
	assert.Zero(t, mftaAdjustment(Buy, mtf.NeutralAlign))
}

func TestGrowthAdjustment(t *testing.T) {
	assert.Zero(t, growthAdjustment(Buy, nil))
	assert.Equal(t, 5.0, growthAdjustment(Buy, f(8)))
	assert.Equal(t, -5.0, growthAdjustment(Buy, f(2)))
	assert.Equal(t, 5.0, growthAdjustment(Sell, f(3)))
	assert.Equal(t, -5.0, growthAdjustment(Avoid, f(7)))
	assert.Zero(t, growthAdjustment(Hold, f(9)))
	assert.Zero(t, growthAdjustment(Buy, f(5)))
}

func TestAssess_WeakSetupIsBearish(t *testing.T) {
	set := &indicators.IndicatorSet{Price: 100, Bars: 120}
	set.Trend.Direction = models.Bearish
	set.Trend.EMA20 = f(85)
	set.Momentum.RSI = f(85)
	set.Momentum.RSIPrev = f(88)
	set.Momentum.MACD = f(-1)
	set.Momentum.MACDSignal = f(-0.5)
	set.Volatility.BBUpper = f(98)
	set.Volatility.BBPercentB = f(1.1)
	set.Volatility.ATR = f(7)
	set.Volatility.ATRPercent = f(7)
	set.Volume.Ratio = f(0.5)
	levels := levelsAround(100, 80, 101)
	ent := entry.Analyze(set, levels)

	a := Assess(Input{Indicators: set, Levels: levels, Entry: ent, MTF: alignedResult(mtf.AlignedBearish)})

	assert.Zero(t, a.PreMFTAScore)
	assert.Zero(t, a.RiskScore)
	assert.Equal(t, "high", a.RiskLevel)
	assert.Equal(t, Sell, a.Decision)
	assert.Equal(t, 80.0, a.DecisionConfidence)
	assert.NotEmpty(t, a.RiskFactors)
}

func TestNeutralAssessment(t *testing.T) {
	a := NeutralAssessment()
	assert.Equal(t, 50.0, a.RiskScore)
	assert.Equal(t, Hold, a.Decision)
	assert.Zero(t, a.DecisionConfidence)
}

// TestProperty_NeutralMultiplierKeepsPreScore checks that a neutral
// alignment leaves the score untouched and every output stays in range.
func TestProperty_NeutralMultiplierKeepsPreScore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("multiplier 1.0 gives risk == pre", prop.ForAll(
		func(rsi, atrPct, ratio, supportPct, resistancePct float64) bool {
			set := strongSet()
			set.Momentum.RSI = f(rsi)
			set.Volatility.ATRPercent = f(atrPct)
			set.Volatility.ATR = f(atrPct)
			set.Volume.Ratio = f(ratio)
			levels := levelsAround(100, 100-supportPct, 100+resistancePct)
			ent := entry.Analyze(set, levels)

			a := Assess(Input{Indicators: set, Levels: levels, Entry: ent, MTF: mtf.NeutralResult()})

			return a.RiskScore == a.PreMFTAScore &&
				a.RiskScore >= 0 && a.RiskScore <= 100 &&
				a.DecisionConfidence >= MinConfidence && a.DecisionConfidence <= MaxConfidence
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0.1, 10),
		gen.Float64Range(0, 3),
		gen.Float64Range(0.1, 20),
		gen.Float64Range(0.1, 20),
	))

	properties.TestingRun(t)
}
