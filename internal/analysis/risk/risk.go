// Package risk aggregates the analysis stages into a 0-100 risk score, an
// investment decision and the factors behind it. Higher scores mean a more
// favourable (lower risk) setup.
package risk

import (
	"fmt"
	"strings"

	"stock-risk-engine/internal/analysis/buckets"
	"stock-risk-engine/internal/analysis/entry"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/mtf"
	"stock-risk-engine/internal/analysis/patterns"
)

// Decision is the investment decision.
type Decision string

const (
	Buy   Decision = "BUY"
	Hold  Decision = "HOLD"
	Avoid Decision = "AVOID"
	Sell  Decision = "SELL"
)

// Layer weights of the pre-alignment score. Momentum and volume layers are
// scored 0-20 and rescaled by 5.
const (
	StructureWeight     = 0.40
	MomentumWeight      = 0.20
	VolumeWeight        = 0.20
	OverextensionWeight = 0.15
	VolatilityWeight    = 0.15
	SmallLayerScale     = 5.0
)

// Confidence bounds and adjustments.
const (
	MinConfidence     = 30.0
	MaxConfidence     = 95.0
	AlignedAdjustment = 10.0
	MixedAdjustment   = 5.0
	GrowthAdjustment  = 5.0
	GrowthStrong      = 7.0
	GrowthWeak        = 3.0
	NeutralRiskScore  = 50.0
)

// Input is everything the aggregator reads.
type Input struct {
	Indicators  *indicators.IndicatorSet
	Levels      patterns.SupportResistance
	Entry       *entry.Analysis
	MTF         *mtf.Result
	GrowthScore *float64
}

// Layers is the per-layer breakdown of the score.
type Layers struct {
	Structure     float64 `json:"structure"`
	Momentum      float64 `json:"momentum"`
	Overextension float64 `json:"overextension"`
	Volatility    float64 `json:"volatility"`
	Volume        float64 `json:"volume"`

	SupportProximity float64 `json:"support_proximity"`
	ResistanceRoom   float64 `json:"resistance_room"`
	TrendBonus       float64 `json:"trend_bonus"`

	MACDMomentum float64 `json:"macd_momentum"`
	RSIMomentum  float64 `json:"rsi_momentum"`

	RSIOverextension       float64 `json:"rsi_overextension"`
	BollingerOverextension float64 `json:"bollinger_overextension"`
	EMAOverextension       float64 `json:"ema_overextension"`

	ATRPenalty  float64 `json:"atr_penalty"`
	StopPenalty float64 `json:"stop_penalty"`
}

// Assessment is the final risk picture.
type Assessment struct {
	Layers         Layers        `json:"layers"`
	PreMFTAScore   float64       `json:"pre_mfta_score"`
	MFTAMultiplier float64       `json:"mfta_multiplier"`
	Alignment      mtf.Alignment `json:"trend_alignment"`
	RiskScore      float64       `json:"risk_score"`
	RiskLevel      string        `json:"risk_level"`

	Decision           Decision `json:"investment_decision"`
	BaseConfidence     float64  `json:"base_confidence"`
	MFTAAdjustment     float64  `json:"mfta_adjustment"`
	GrowthAdjustment   float64  `json:"growth_adjustment"`
	DecisionConfidence float64  `json:"decision_confidence"`

	BullishFactors []string `json:"bullish_factors"`
	BearishFactors []string `json:"bearish_factors"`
	RiskFactors    []string `json:"risk_factors"`
	Reasoning      string   `json:"reasoning"`
}

// NeutralAssessment is reported when the analysis could not run.
func NeutralAssessment() *Assessment {
	return &Assessment{
		MFTAMultiplier: mtf.Multiplier(mtf.NeutralAlign),
		Alignment:      mtf.NeutralAlign,
		PreMFTAScore:   NeutralRiskScore,
		RiskScore:      NeutralRiskScore,
		RiskLevel:      buckets.RiskLevel.Lookup(NeutralRiskScore),
		Decision:       Hold,
		Reasoning:      "insufficient data for a risk assessment",
	}
}

// Assess computes the layered risk score and the investment decision.
func Assess(in Input) *Assessment {
	multi := in.MTF
	if multi == nil {
		multi = mtf.NeutralResult()
	}

	a := &Assessment{
		MFTAMultiplier: multi.Multiplier,
		Alignment:      multi.Alignment,
	}

	ind := in.Indicators
	a.Layers = computeLayers(ind, in.Levels)

	a.PreMFTAScore = PreMFTAScore(a.Layers)
	a.RiskScore = clamp(a.PreMFTAScore*a.MFTAMultiplier, 0, 100)
	a.RiskLevel = buckets.RiskLevel.Lookup(a.RiskScore)

	a.Decision, a.BaseConfidence = Decide(a.RiskScore, in.Entry)
	a.MFTAAdjustment = mftaAdjustment(a.Decision, a.Alignment)
	a.GrowthAdjustment = growthAdjustment(a.Decision, in.GrowthScore)
	a.DecisionConfidence = clamp(a.BaseConfidence+a.MFTAAdjustment+a.GrowthAdjustment, MinConfidence, MaxConfidence)

	a.collectFactors(ind, in.Levels, in.Entry)
	a.Reasoning = a.reasoning()
	return a
}

// PreMFTAScore combines the layers before the multi-timeframe multiplier.
func PreMFTAScore(l Layers) float64 {
	score := l.Structure*StructureWeight +
		l.Momentum*MomentumWeight*SmallLayerScale +
		l.Volume*VolumeWeight*SmallLayerScale -
		l.Overextension*OverextensionWeight -
		l.Volatility*VolatilityWeight
	return clamp(score, 0, 100)
}

// Decide maps a risk score and the entry's risk/reward onto a decision and
// its base confidence.
func Decide(score float64, ent *entry.Analysis) (Decision, float64) {
	favourable := ent != nil && ent.HasFavourableRiskReward()
	rr := 0.0
	if ent != nil {
		rr = ent.RiskReward
	}

	switch {
	case score >= 80 && favourable:
		return Buy, 85
	case score >= 70 && rr >= 1.5:
		return Buy, 75
	case score >= 60 && favourable:
		return Buy, 65
	case score >= 60:
		return Hold, 60
	case score >= 40:
		return Hold, 55
	case score >= 20:
		return Avoid, 60
	default:
		return Sell, 70
	}
}

func computeLayers(ind *indicators.IndicatorSet, levels patterns.SupportResistance) Layers {
	var l Layers
	price := ind.Price

	// Market structure.
	if levels.SupportDistancePct != nil {
		l.SupportProximity = buckets.SupportProximity.Lookup(*levels.SupportDistancePct)
	}
	l.ResistanceRoom = 40
	if levels.ResistanceDistancePct != nil {
		l.ResistanceRoom = buckets.ResistanceRoom.Lookup(*levels.ResistanceDistancePct)
	}
	t := ind.Trend
	if t.SMA50 != nil && t.SMA200 != nil && *t.SMA50 > *t.SMA200 {
		l.TrendBonus += 10
	}
	m := ind.Momentum
	if m.MACD != nil && *m.MACD > 0 {
		l.TrendBonus += 5
	}
	if t.ADX != nil && *t.ADX > 20 {
		l.TrendBonus += 5
	}
	l.Structure = clamp(l.SupportProximity+l.ResistanceRoom+l.TrendBonus, 0, 100)

	// Momentum.
	if m.MACD != nil && m.MACDSignal != nil {
		above, positive := *m.MACD > *m.MACDSignal, *m.MACD > 0
		switch {
		case above && positive:
			l.MACDMomentum = 10
		case above:
			l.MACDMomentum = 7
		case positive:
			l.MACDMomentum = 4
		}
	}
	l.RSIMomentum = 5
	if m.RSI != nil && m.RSIPrev != nil && *m.RSI > *m.RSIPrev {
		l.RSIMomentum = 7
		if *m.RSI >= 40 && *m.RSI <= 70 {
			l.RSIMomentum = 10
		}
	}
	l.Momentum = l.MACDMomentum + l.RSIMomentum

	// Overextension.
	if m.RSI != nil {
		l.RSIOverextension = buckets.RSIOverextension.Lookup(*m.RSI)
	}
	v := ind.Volatility
	if v.BBUpper != nil && price > *v.BBUpper {
		l.BollingerOverextension = 60
	} else if v.BBPercentB != nil {
		l.BollingerOverextension = buckets.BollingerOverextension.Lookup(*v.BBPercentB)
	}
	if t.EMA20 != nil && *t.EMA20 > 0 {
		dist := (price - *t.EMA20) / *t.EMA20 * 100
		l.EMAOverextension = buckets.EMADistanceOverextension.Lookup(dist)
	}
	l.Overextension = clamp(0.5*l.RSIOverextension+0.3*l.BollingerOverextension+0.2*l.EMAOverextension, 0, 100)

	// Volatility.
	if v.ATRPercent != nil {
		l.ATRPenalty = buckets.ATRPenalty.Lookup(*v.ATRPercent)
	}
	if v.ATR != nil && price > 0 {
		stopPct := entry.StopATRMultiple * *v.ATR / price * 100
		l.StopPenalty = buckets.StopDistancePenalty.Lookup(stopPct)
	}
	l.Volatility = clamp(0.6*l.ATRPenalty+0.4*l.StopPenalty, 0, 100)

	// Volume.
	if ind.Volume.Ratio != nil {
		l.Volume = buckets.VolumeConfirmation.Lookup(*ind.Volume.Ratio)
	}

	return l
}

func mftaAdjustment(d Decision, a mtf.Alignment) float64 {
	if a == mtf.Mixed {
		return -MixedAdjustment
	}

	var with, against mtf.Alignment
	switch d {
	case Buy:
		with, against = mtf.AlignedBullish, mtf.AlignedBearish
	case Avoid, Sell:
		with, against = mtf.AlignedBearish, mtf.AlignedBullish
	default:
		return 0
	}

	switch a {
	case with:
		return AlignedAdjustment
	case against:
		return -AlignedAdjustment
	}
	return 0
}

func growthAdjustment(d Decision, growth *float64) float64 {
	if growth == nil {
		return 0
	}
	g := *growth
	switch d {
	case Buy:
		if g >= GrowthStrong {
			return GrowthAdjustment
		}
		if g <= GrowthWeak {
			return -GrowthAdjustment
		}
	case Avoid, Sell:
		if g <= GrowthWeak {
			return GrowthAdjustment
		}
		if g >= GrowthStrong {
			return -GrowthAdjustment
		}
	}
	return 0
}

func (a *Assessment) collectFactors(ind *indicators.IndicatorSet, levels patterns.SupportResistance, ent *entry.Analysis) {
	bull := func(format string, args ...interface{}) {
		a.BullishFactors = append(a.BullishFactors, fmt.Sprintf(format, args...))
	}
	bear := func(format string, args ...interface{}) {
		a.BearishFactors = append(a.BearishFactors, fmt.Sprintf(format, args...))
	}
	risk := func(format string, args ...interface{}) {
		a.RiskFactors = append(a.RiskFactors, fmt.Sprintf(format, args...))
	}
	l := a.Layers

	if l.SupportProximity >= 30 {
		bull("support %.1f%% below price", *levels.SupportDistancePct)
	}
	if levels.NearestSupport == nil {
		risk("no support identified below price")
	}
	if levels.ResistanceDistancePct != nil && l.ResistanceRoom <= 10 {
		bear("resistance only %.1f%% above price", *levels.ResistanceDistancePct)
	}
	if ind.Trend.GoldenCross {
		bull("SMA50 above SMA200")
	} else if ind.Trend.DeathCross {
		bear("SMA50 below SMA200")
	}

	if l.MACDMomentum >= 7 {
		bull("MACD above its signal line")
	} else if l.MACDMomentum == 0 && ind.Momentum.MACD != nil {
		bear("MACD below its signal line and zero")
	}
	if l.RSIMomentum == 10 {
		bull("RSI rising in the 40-70 band")
	}

	if l.RSIOverextension > 0 {
		risk("RSI %.1f is overbought", *ind.Momentum.RSI)
	}
	if l.BollingerOverextension >= 60 {
		risk("price above the upper Bollinger band")
	}
	if l.EMAOverextension >= 50 {
		risk("price stretched well above EMA20")
	}
	if l.ATRPenalty >= 60 {
		risk("high volatility, ATR %.1f%% of price", *ind.Volatility.ATRPercent)
	}

	if l.Volume >= 15 {
		bull("volume %.1fx average", *ind.Volume.Ratio)
	} else if ind.Volume.Ratio != nil && l.Volume == 0 {
		bear("volume only %.1fx average", *ind.Volume.Ratio)
	}

	switch a.Alignment {
	case mtf.AlignedBullish:
		bull("all timeframes bullish")
	case mtf.AlignedBearish:
		bear("all timeframes bearish")
	case mtf.Mixed:
		risk("timeframes disagree")
	}

	if ent != nil {
		if ent.IsGoodEntry {
			bull("%s entry quality", ent.Quality)
		}
		if ent.RiskRewardRating == "poor" {
			risk("risk/reward %.2f", ent.RiskReward)
		}
	}
}

func (a *Assessment) reasoning() string {
	parts := []string{
		fmt.Sprintf("risk score %.1f (%s) from pre-alignment %.1f x %.2f (%s)",
			a.RiskScore, a.RiskLevel, a.PreMFTAScore, a.MFTAMultiplier, a.Alignment),
		fmt.Sprintf("structure %.0f, momentum %.0f/20, volume %.0f/20, overextension %.0f, volatility %.0f",
			a.Layers.Structure, a.Layers.Momentum, a.Layers.Volume, a.Layers.Overextension, a.Layers.Volatility),
		fmt.Sprintf("%s at %.0f%% confidence", a.Decision, a.DecisionConfidence),
	}
	return strings.Join(parts, "; ")
}

func clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
