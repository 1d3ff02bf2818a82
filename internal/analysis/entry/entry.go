// Package entry evaluates whether the current price is a sensible place to
// open a long position: where it sits in its range, how much confluence
// backs it, and what the stop and target imply.
package entry

import (
	"fmt"
	"strings"

	"stock-risk-engine/internal/analysis/buckets"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/patterns"
	"stock-risk-engine/internal/models"
)

// Fallback multiples used when no level exists on one side of price.
const (
	FallbackSupport    = 0.95
	FallbackResistance = 1.05
	FallbackStop       = 0.95
	StopATRMultiple    = 2.0
	LevelBuffer        = 0.99
	EntryZoneLow       = 1.01
	EntryZoneHigh      = 1.03
)

// Sources of the effective levels.
const (
	SourceNearest  = "nearest"
	SourcePivot    = "pivot"
	SourceFallback = "fallback"
)

// Zone labels.
const (
	ZoneDiscount = "discount"
	ZoneNeutral  = "neutral"
	ZonePremium  = "premium"
)

// Quality labels.
const (
	QualityExcellent  = "excellent"
	QualityGood       = "good"
	QualityAcceptable = "acceptable"
	QualityPoor       = "poor"
)

// Analysis is the entry evaluation for the latest bar.
type Analysis struct {
	Price float64 `json:"price"`

	Support          float64 `json:"support"`
	SupportSource    string  `json:"support_source"`
	Resistance       float64 `json:"resistance"`
	ResistanceSource string  `json:"resistance_source"`

	RangePositionPct float64 `json:"range_position_pct"`
	Zone             string  `json:"zone"`

	ConfluenceScore   float64  `json:"confluence_score"`
	ConfluenceFactors []string `json:"confluence_factors"`

	StopLoss          float64 `json:"stop_loss"`
	StopDistancePct   float64 `json:"stop_distance_pct"`
	Target            float64 `json:"target"`
	TargetDistancePct float64 `json:"target_distance_pct"`
	RiskReward        float64 `json:"risk_reward"`
	RiskRewardRating  string  `json:"risk_reward_rating"`

	QualityScore float64 `json:"entry_quality_score"`
	Quality      string  `json:"entry_quality"`
	IsGoodEntry  bool    `json:"is_good_entry"`

	SuggestedEntryLow  float64 `json:"suggested_entry_low"`
	SuggestedEntryHigh float64 `json:"suggested_entry_high"`
	WaitForPullback    bool    `json:"wait_for_pullback"`

	Reasoning []string `json:"reasoning"`
	Warnings  []string `json:"warnings,omitempty"`
}

// PriceActionScore is the entry quality rescaled to the 0-10 subscore range.
func (a *Analysis) PriceActionScore() float64 {
	return a.QualityScore / 10
}

// HasFavourableRiskReward reports a good or excellent risk/reward rating.
func (a *Analysis) HasFavourableRiskReward() bool {
	return a.RiskRewardRating == "excellent" || a.RiskRewardRating == "good"
}

// Analyze evaluates the entry at the latest close.
func Analyze(ind *indicators.IndicatorSet, levels patterns.SupportResistance) *Analysis {
	price := ind.Price
	a := &Analysis{Price: price}

	a.Support, a.SupportSource = effectiveSupport(price, levels)
	a.Resistance, a.ResistanceSource = effectiveResistance(price, levels)

	a.RangePositionPct = RangePosition(price, a.Support, a.Resistance)
	a.Zone = buckets.RangeZone.Lookup(a.RangePositionPct)

	a.ConfluenceScore, a.ConfluenceFactors = confluence(ind, levels)

	a.StopLoss = stopLoss(ind, levels)
	a.Target = target(price, levels, a.Resistance)
	a.StopDistancePct = (price - a.StopLoss) / price * 100
	a.TargetDistancePct = (a.Target - price) / price * 100
	a.RiskReward = CalculateRiskReward(price, a.StopLoss, a.Target)
	a.RiskRewardRating = buckets.RiskRewardRating.Lookup(a.RiskReward)

	a.QualityScore = qualityScore(a, ind.Trend.Direction)
	a.Quality = buckets.EntryQuality.Lookup(a.QualityScore)
	a.IsGoodEntry = a.Quality == QualityExcellent || a.Quality == QualityGood

	zoneBase := a.Support
	if levels.NearestSupport != nil {
		zoneBase = *levels.NearestSupport
	}
	a.SuggestedEntryLow = zoneBase * EntryZoneLow
	a.SuggestedEntryHigh = zoneBase * EntryZoneHigh
	a.WaitForPullback = price > a.SuggestedEntryHigh

	a.Reasoning, a.Warnings = explain(a, ind.Trend.Direction)
	return a
}

// RangePosition places price within [support, resistance] as a percentage.
// A degenerate range reports the midpoint.
func RangePosition(price, support, resistance float64) float64 {
	width := resistance - support
	if width <= 0 {
		return 50
	}
	return clamp((price-support)/width*100, 0, 100)
}

// CalculateRiskReward returns reward over risk for a long position, or 0
// when the stop does not sit below the entry.
func CalculateRiskReward(entry, stopLoss, target float64) float64 {
	if entry <= 0 || stopLoss <= 0 {
		return 0
	}
	risk := entry - stopLoss
	if risk <= 0 {
		return 0
	}
	return (target - entry) / risk
}

func effectiveSupport(price float64, levels patterns.SupportResistance) (float64, string) {
	switch {
	case levels.NearestSupport != nil:
		return *levels.NearestSupport, SourceNearest
	case levels.S1 > 0 && levels.S1 < price:
		return levels.S1, SourcePivot
	default:
		return price * FallbackSupport, SourceFallback
	}
}

func effectiveResistance(price float64, levels patterns.SupportResistance) (float64, string) {
	switch {
	case levels.NearestResistance != nil:
		return *levels.NearestResistance, SourceNearest
	case levels.R1 > price:
		return levels.R1, SourcePivot
	default:
		return price * FallbackResistance, SourceFallback
	}
}

// stopLoss is the tighter of an ATR stop and a stop just under support.
func stopLoss(ind *indicators.IndicatorSet, levels patterns.SupportResistance) float64 {
	var candidates []float64
	if ind.Volatility.ATR != nil {
		candidates = append(candidates, ind.Price-StopATRMultiple*(*ind.Volatility.ATR))
	}
	if levels.NearestSupport != nil {
		candidates = append(candidates, *levels.NearestSupport*LevelBuffer)
	}
	if len(candidates) == 0 {
		return ind.Price * FallbackStop
	}
	stop := candidates[0]
	for _, c := range candidates[1:] {
		if c > stop {
			stop = c
		}
	}
	return stop
}

func target(price float64, levels patterns.SupportResistance, resistance float64) float64 {
	switch {
	case levels.NearestResistance != nil:
		return *levels.NearestResistance * LevelBuffer
	case levels.R1 > price:
		return levels.R1
	default:
		return resistance
	}
}

func confluence(ind *indicators.IndicatorSet, levels patterns.SupportResistance) (float64, []string) {
	var score float64
	var factors []string
	add := func(points float64, factor string) {
		score += points
		factors = append(factors, fmt.Sprintf("%s (%+.1f)", factor, points))
	}

	t := ind.Trend
	if t.Direction == models.Bullish {
		add(2.0, "bullish trend")
	}

	if levels.SupportDistancePct != nil {
		if pts := buckets.SupportConfluence.Lookup(*levels.SupportDistancePct); pts > 0 {
			add(pts, fmt.Sprintf("support %.1f%% below", *levels.SupportDistancePct))
		}
	}

	if t.SMA20 != nil && t.SMA50 != nil && t.SMA200 != nil {
		switch {
		case *t.SMA20 > *t.SMA50 && *t.SMA50 > *t.SMA200:
			add(1.0, "bullish SMA stack")
		case *t.SMA20 < *t.SMA50 && *t.SMA50 < *t.SMA200:
			add(-0.5, "bearish SMA stack")
		}
	}

	if ind.Volume.Ratio != nil {
		if pts := buckets.VolumeConfluence.Lookup(*ind.Volume.Ratio); pts > 0 {
			add(pts, fmt.Sprintf("volume %.1fx average", *ind.Volume.Ratio))
		}
	}

	m := ind.Momentum
	macdBullish := m.MACD != nil && m.MACDSignal != nil && *m.MACD > *m.MACDSignal
	if m.RSISignal == "oversold" || macdBullish {
		add(0.5, "momentum turning up")
	}

	switch {
	case t.GoldenCross:
		add(0.5, "golden cross")
	case t.DeathCross:
		add(-0.5, "death cross")
	}

	switch ind.Volume.OBVTrend {
	case indicators.OBVRising:
		add(0.5, "OBV rising")
	case indicators.OBVFalling:
		add(-0.5, "OBV falling")
	}

	if score < 0 {
		score = 0
	}
	return score, factors
}

func qualityScore(a *Analysis, trend models.Direction) float64 {
	score := 50.0

	switch a.Zone {
	case ZoneDiscount:
		score += 20
	case ZonePremium:
		score -= 20
	}

	score += buckets.ConfluenceQuality.Lookup(a.ConfluenceScore)
	score += buckets.RiskRewardQuality.Lookup(a.RiskReward)

	switch trend {
	case models.Bullish:
		score += 20
	case models.Bearish:
		score -= 15
	default:
		score += 5
	}

	return clamp(score, 0, 100)
}

func explain(a *Analysis, trend models.Direction) (reasoning, warnings []string) {
	reasoning = append(reasoning,
		fmt.Sprintf("price %.2f sits at %.0f%% of the %.2f-%.2f range (%s)", a.Price, a.RangePositionPct, a.Support, a.Resistance, a.Zone),
		fmt.Sprintf("stop %.2f (%.1f%% risk), target %.2f (%.1f%% reward), R/R %.2f (%s)",
			a.StopLoss, a.StopDistancePct, a.Target, a.TargetDistancePct, a.RiskReward, a.RiskRewardRating),
	)
	if len(a.ConfluenceFactors) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("confluence %.1f: %s", a.ConfluenceScore, strings.Join(a.ConfluenceFactors, ", ")))
	}
	reasoning = append(reasoning, fmt.Sprintf("entry quality %.0f (%s)", a.QualityScore, a.Quality))

	if a.SupportSource == SourceFallback {
		warnings = append(warnings, "no support below price, using a 5% fallback")
	}
	if a.ResistanceSource == SourceFallback {
		warnings = append(warnings, "no resistance above price, using a 5% fallback")
	}
	if a.Zone == ZonePremium {
		warnings = append(warnings, "price is in the premium part of its range")
	}
	if a.RiskRewardRating == QualityPoor {
		warnings = append(warnings, fmt.Sprintf("risk/reward %.2f is below 1.5", a.RiskReward))
	}
	if trend == models.Bearish {
		warnings = append(warnings, "trend is bearish")
	}
	if a.WaitForPullback {
		warnings = append(warnings, fmt.Sprintf("consider waiting for a pullback to %.2f-%.2f", a.SuggestedEntryLow, a.SuggestedEntryHigh))
	}
	return reasoning, warnings
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
