package indicators

import (
	"stock-risk-engine/internal/analysis/buckets"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
)

// Default parameters of the snapshot.
const (
	RSIPeriod          = 14
	ADXPeriod          = 14
	ATRPeriod          = 14
	BollingerPeriod    = 20
	BollingerStdDev    = 2.5
	ROCPeriod          = 12
	VolumeAvgPeriod    = 20
	OBVSlopePeriod     = 20
	SqueezeBandwidth   = 0.10
	RSILookback        = 5
	VolumeSpikeRatio   = 1.5
	VolumeDryRatio     = 0.5
	StrongTrendADX     = 25.0
	ReweightedRSIScale = 0.3
)

// MACD cross labels.
const (
	CrossBullish = "bullish_cross"
	CrossBearish = "bearish_cross"
	CrossNone    = "none"
)

// Bollinger band positions.
const (
	BandUpperBreakout = "upper_breakout"
	BandLowerBreakout = "lower_breakout"
	BandInside        = "inside"
)

// OBV trend labels.
const (
	OBVRising  = "rising"
	OBVFalling = "falling"
	OBVFlat    = "flat"
)

// RSI labels produced by trend-context reweighting.
const (
	NeutralInUptrend   = "neutral_in_uptrend"
	NeutralInDowntrend = "neutral_in_downtrend"
)

// Unknown is used for classifications whose input could not be computed.
const Unknown = "unknown"

// TrendIndicators summarises moving averages and directional strength.
// Pointer fields are nil when the history is shorter than their window.
type TrendIndicators struct {
	SMA20  *float64 `json:"sma_20"`
	SMA50  *float64 `json:"sma_50"`
	SMA200 *float64 `json:"sma_200"`
	EMA12  *float64 `json:"ema_12"`
	EMA20  *float64 `json:"ema_20"`
	EMA26  *float64 `json:"ema_26"`

	ADX         *float64 `json:"adx"`
	PlusDI      *float64 `json:"plus_di"`
	MinusDI     *float64 `json:"minus_di"`
	ADXStrength string   `json:"adx_strength"`

	GoldenCross bool `json:"golden_cross"`
	DeathCross  bool `json:"death_cross"`

	// SMAsAvailable is how many of SMA20/50/200 are defined. SMAsAbove counts
	// the SMAs price closes above, SMAsBelow those it closes below.
	SMAsAvailable int `json:"smas_available"`
	SMAsAbove     int `json:"smas_above"`
	SMAsBelow     int `json:"smas_below"`

	Direction     models.Direction `json:"direction"`
	StrengthScore float64          `json:"strength_score"`
}

// MomentumIndicators holds oscillator readings.
type MomentumIndicators struct {
	RSI       *float64 `json:"rsi"`
	RSIPrev   *float64 `json:"rsi_prev"` // RSI RSILookback bars ago
	RSISignal string   `json:"rsi_signal"`

	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	MACDCross     string   `json:"macd_cross"`

	StochK      *float64 `json:"stoch_k"`
	StochD      *float64 `json:"stoch_d"`
	StochSignal string   `json:"stoch_signal"`

	ROC       *float64 `json:"roc"`
	ROCSignal string   `json:"roc_signal"`

	Analysis MomentumAnalysis `json:"analysis"`
}

// MomentumAnalysis is momentum read in the context of the prevailing trend.
type MomentumAnalysis struct {
	RSISignal  string  `json:"rsi_signal"`
	RSIWeight  float64 `json:"rsi_weight"`
	Reweighted bool    `json:"reweighted"`
	Score      float64 `json:"score"`
}

// VolatilityIndicators holds band and range readings.
type VolatilityIndicators struct {
	BBUpper      *float64 `json:"bb_upper"`
	BBMiddle     *float64 `json:"bb_middle"`
	BBLower      *float64 `json:"bb_lower"`
	BBBandwidth  *float64 `json:"bb_bandwidth"`
	BBPercentB   *float64 `json:"bb_percent_b"`
	Squeeze      bool     `json:"squeeze"`
	BandPosition string   `json:"band_position"`

	ATR        *float64 `json:"atr"`
	ATRPercent *float64 `json:"atr_percent"`
	ATRLevel   string   `json:"atr_level"`

	Score float64 `json:"score"`
}

// VolumeIndicators holds participation readings.
type VolumeIndicators struct {
	Current float64  `json:"current"`
	Average *float64 `json:"average"`
	Ratio   *float64 `json:"ratio"`
	Level   string   `json:"level"`

	OBV      *float64 `json:"obv"`
	OBVSlope float64  `json:"obv_slope"`
	OBVTrend string   `json:"obv_trend"`

	Score float64 `json:"score"`
}

// IndicatorSet is the indicator snapshot for the latest bar of a series.
type IndicatorSet struct {
	Price      float64              `json:"price"`
	Bars       int                  `json:"bars"`
	Trend      TrendIndicators      `json:"trend"`
	Momentum   MomentumIndicators   `json:"momentum"`
	Volatility VolatilityIndicators `json:"volatility"`
	Volume     VolumeIndicators     `json:"volume"`
}

// Compute builds the indicator snapshot for the latest bar. Indicators whose
// window is longer than the history are omitted rather than failing.
func Compute(series *models.PriceSeries) (*IndicatorSet, error) {
	if series.Len() < 2 {
		symbol := ""
		if series != nil {
			symbol = series.Symbol
		}
		return nil, apperrors.NewInsufficientDataError(symbol, series.Len(), 2, 0)
	}

	candles := series.Bars
	set := &IndicatorSet{
		Price: series.Last().Close,
		Bars:  len(candles),
	}

	set.Trend = computeTrend(candles, set.Price)
	set.Momentum = computeMomentum(candles)
	set.Momentum.Analysis = ReweightMomentum(set.Price, set.Trend, set.Momentum)
	set.Volatility = computeVolatility(candles, set.Price)
	set.Volume = computeVolume(candles)

	return set, nil
}

func latest(ind Indicator, candles []models.Candle) *float64 {
	values, err := ind.Calculate(candles)
	if err != nil {
		return nil
	}
	return ptr(last(values))
}

func latestMulti(values map[string][]float64, key string) *float64 {
	series, ok := values[key]
	if !ok || len(series) == 0 {
		return nil
	}
	return ptr(last(series))
}

func computeTrend(candles []models.Candle, price float64) TrendIndicators {
	t := TrendIndicators{
		SMA20:  latest(NewSMA(20), candles),
		SMA50:  latest(NewSMA(50), candles),
		SMA200: latest(NewSMA(200), candles),
		EMA12:  latest(NewEMA(12), candles),
		EMA20:  latest(NewEMA(20), candles),
		EMA26:  latest(NewEMA(26), candles),
	}

	t.ADXStrength = Unknown
	if adx, err := NewADX(ADXPeriod).Calculate(candles); err == nil {
		t.ADX = latestMulti(adx, LineADX)
		t.PlusDI = latestMulti(adx, LinePlusDI)
		t.MinusDI = latestMulti(adx, LineMinusDI)
		t.ADXStrength = buckets.ADXStrength.Lookup(*t.ADX)
	}

	if t.SMA50 != nil && t.SMA200 != nil {
		t.GoldenCross = *t.SMA50 > *t.SMA200
		t.DeathCross = *t.SMA50 < *t.SMA200
	}

	for _, sma := range []*float64{t.SMA20, t.SMA50, t.SMA200} {
		if sma == nil {
			continue
		}
		t.SMAsAvailable++
		if price > *sma {
			t.SMAsAbove++
		} else if price < *sma {
			t.SMAsBelow++
		}
	}

	switch {
	case t.SMAsAbove >= 2:
		t.Direction = models.Bullish
	case t.SMAsBelow >= 2:
		t.Direction = models.Bearish
	default:
		t.Direction = models.Neutral
	}

	t.StrengthScore = trendStrengthScore(t)
	return t
}

func trendStrengthScore(t TrendIndicators) float64 {
	score := 5.0

	if t.SMAsAvailable > 0 {
		if t.SMAsAbove == t.SMAsAvailable {
			score += 2
		} else if t.SMAsBelow == t.SMAsAvailable {
			score -= 2
		}
	}

	if t.ADX != nil {
		weight := buckets.ADXTrendWeight.Lookup(*t.ADX)
		score += weight * float64(t.Direction.Vote())
	}

	if t.GoldenCross {
		score++
	} else if t.DeathCross {
		score--
	}

	if t.EMA12 != nil && t.EMA26 != nil {
		if *t.EMA12 > *t.EMA26 {
			score += 0.5
		} else if *t.EMA12 < *t.EMA26 {
			score -= 0.5
		}
	}

	return clamp(score, 0, 10)
}

func computeMomentum(candles []models.Candle) MomentumIndicators {
	n := len(candles)
	m := MomentumIndicators{
		RSISignal:   Unknown,
		MACDCross:   CrossNone,
		StochSignal: Unknown,
		ROCSignal:   Unknown,
	}

	if rsi, err := NewRSI(RSIPeriod).Calculate(candles); err == nil {
		m.RSI = ptr(rsi[n-1])
		m.RSISignal = buckets.RSISignal.Lookup(rsi[n-1])
		if prev := n - 1 - RSILookback; prev >= RSIPeriod {
			m.RSIPrev = ptr(rsi[prev])
		}
	}

	macd := NewMACD(12, 26, 9)
	if values, err := macd.Calculate(candles); err == nil {
		m.MACD = latestMulti(values, LineMACD)
		m.MACDSignal = latestMulti(values, LineSignal)
		m.MACDHistogram = latestMulti(values, LineHistogram)

		hist := values[LineHistogram]
		if n-2 >= macd.Period()-1 {
			prev, cur := hist[n-2], hist[n-1]
			switch {
			case prev <= 0 && cur > 0:
				m.MACDCross = CrossBullish
			case prev >= 0 && cur < 0:
				m.MACDCross = CrossBearish
			}
		}
	}

	// %D of Stochastic(14,3,3) needs k+smooth+d-2 bars.
	if n >= 14+3+3-2 {
		if values, err := NewStochastic(14, 3, 3).Calculate(candles); err == nil {
			m.StochK = latestMulti(values, LineK)
			m.StochD = latestMulti(values, LineD)
			m.StochSignal = buckets.StochasticSignal.Lookup(*m.StochK)
		}
	}

	if roc := latest(NewROC(ROCPeriod), candles); roc != nil {
		m.ROC = roc
		m.ROCSignal = buckets.ROCSignal.Lookup(*roc)
	}

	return m
}

// ReweightMomentum reads momentum in the context of the trend. In a strong
// uptrend an overbought RSI keeps only a fraction of its influence and is
// relabelled neutral_in_uptrend; strong downtrends mirror this for oversold.
func ReweightMomentum(price float64, trend TrendIndicators, momentum MomentumIndicators) MomentumAnalysis {
	a := MomentumAnalysis{
		RSISignal: momentum.RSISignal,
		RSIWeight: 1.0,
	}

	strong := trend.SMA50 != nil && trend.SMA200 != nil && trend.ADX != nil && *trend.ADX > StrongTrendADX
	strongUp := strong && price > *trend.SMA50 && price > *trend.SMA200 && trend.Direction == models.Bullish
	strongDown := strong && price < *trend.SMA50 && price < *trend.SMA200 && trend.Direction == models.Bearish

	if strongUp && momentum.RSISignal == "overbought" {
		a.RSISignal = NeutralInUptrend
		a.RSIWeight = ReweightedRSIScale
		a.Reweighted = true
	}
	if strongDown && momentum.RSISignal == "oversold" {
		a.RSISignal = NeutralInDowntrend
		a.RSIWeight = ReweightedRSIScale
		a.Reweighted = true
	}

	score := 5.0

	if momentum.RSI != nil {
		switch momentum.RSISignal {
		case "oversold":
			score += 1.5 * a.RSIWeight
		case "overbought":
			score -= 1.5 * a.RSIWeight
		default:
			if *momentum.RSI > 50 {
				score += 0.3
			}
		}
	}

	switch momentum.MACDCross {
	case CrossBullish:
		score += 1.75
	case CrossBearish:
		score -= 1.75
	default:
		if momentum.MACDHistogram != nil {
			if *momentum.MACDHistogram > 0 {
				score += 0.7
			} else if *momentum.MACDHistogram < 0 {
				score -= 0.7
			}
		}
	}

	switch momentum.StochSignal {
	case "oversold":
		score += 1.0
	case "overbought":
		score -= 1.0
	}

	switch momentum.ROCSignal {
	case "bullish":
		score += 0.75
	case "bearish":
		score -= 0.75
	}

	a.Score = clamp(score, 0, 10)
	return a
}

func computeVolatility(candles []models.Candle, price float64) VolatilityIndicators {
	v := VolatilityIndicators{
		BandPosition: Unknown,
		ATRLevel:     Unknown,
	}

	if bands, err := NewBollingerBands(BollingerPeriod, BollingerStdDev).Calculate(candles); err == nil {
		v.BBUpper = latestMulti(bands, LineUpper)
		v.BBMiddle = latestMulti(bands, LineMiddle)
		v.BBLower = latestMulti(bands, LineLower)
		v.BBBandwidth = latestMulti(bands, LineBandwidth)
		v.BBPercentB = latestMulti(bands, LinePercentB)

		v.Squeeze = *v.BBBandwidth < SqueezeBandwidth
		switch {
		case price > *v.BBUpper:
			v.BandPosition = BandUpperBreakout
		case price < *v.BBLower:
			v.BandPosition = BandLowerBreakout
		default:
			v.BandPosition = BandInside
		}
	}

	if atr := latest(NewATR(ATRPeriod), candles); atr != nil && price > 0 {
		v.ATR = atr
		v.ATRPercent = ptr(*atr / price * 100)
		v.ATRLevel = buckets.ATRLevel.Lookup(*v.ATRPercent)
	}

	score := 5.0
	if v.Squeeze {
		score++
	}
	switch v.BandPosition {
	case BandUpperBreakout:
		score += 1.5
	case BandLowerBreakout:
		score -= 1.5
	}
	switch v.ATRLevel {
	case "low":
		score += 0.5
	case "very_high":
		score--
	}
	v.Score = clamp(score, 0, 10)

	return v
}

func computeVolume(candles []models.Candle) VolumeIndicators {
	n := len(candles)
	v := VolumeIndicators{
		Current:  candles[n-1].Volume,
		Level:    Unknown,
		OBVTrend: OBVFlat,
	}

	recent := candles
	if n > VolumeAvgPeriod {
		recent = candles[n-VolumeAvgPeriod:]
	}
	avg := average(Volume.Column(recent))
	v.Average = ptr(avg)
	if avg > 0 {
		v.Ratio = ptr(v.Current / avg)
		v.Level = buckets.VolumeLevel.Lookup(*v.Ratio)
	}

	if obv, err := NewOBV().Calculate(candles); err == nil {
		v.OBV = ptr(last(obv))
		tail := obv
		if len(tail) > OBVSlopePeriod {
			tail = tail[len(tail)-OBVSlopePeriod:]
		}
		v.OBVSlope = Slope(tail)
		switch {
		case v.OBVSlope > 0:
			v.OBVTrend = OBVRising
		case v.OBVSlope < 0:
			v.OBVTrend = OBVFalling
		}
	}

	score := 5.0
	if v.Ratio != nil {
		move := candles[n-1].Close - candles[n-2].Close
		if *v.Ratio > VolumeSpikeRatio {
			if move > 0 {
				score += 2
			} else if move < 0 {
				score -= 2
			}
		}
		if *v.Ratio < VolumeDryRatio {
			score--
		}
	}
	switch v.OBVTrend {
	case OBVRising:
		score += 3
	case OBVFalling:
		score -= 3
	}
	v.Score = clamp(score, 0, 10)

	return v
}
