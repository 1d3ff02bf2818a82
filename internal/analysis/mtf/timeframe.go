package mtf

import (
	"stock-risk-engine/internal/analysis/buckets"
	"stock-risk-engine/internal/analysis/indicators"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
)

// Role is the part a timeframe plays in the alignment check.
type Role string

const (
	RolePrimary      Role = "primary"      // daily
	RoleConfirmation Role = "confirmation" // 60-minute
	RoleExecution    Role = "execution"    // 5-minute
)

// AllRoles returns the roles in evaluation order.
func AllRoles() []Role {
	return []Role{RolePrimary, RoleConfirmation, RoleExecution}
}

// DefaultTimeframe maps a role to the bar interval it is normally fed with.
func (r Role) DefaultTimeframe() string {
	switch r {
	case RoleConfirmation:
		return models.Timeframe60Min
	case RoleExecution:
		return models.Timeframe5Min
	default:
		return models.TimeframeDay
	}
}

// Entry signals emitted on the execution timeframe.
const (
	EntryBuy  = "buy"
	EntrySell = "sell"
	EntryNone = "none"
)

// MinTimeframeBars is the history required to summarise a timeframe.
const MinTimeframeBars = 50

// TimeframeSummary is the trend and momentum read of one timeframe.
type TimeframeSummary struct {
	Timeframe      string           `json:"timeframe"`
	Role           Role             `json:"role"`
	Bars           int              `json:"bars"`
	TrendDirection models.Direction `json:"trend_direction"`
	TrendStrength  float64          `json:"trend_strength"`
	MomentumSignal string           `json:"momentum_signal"`
	EntrySignal    string           `json:"entry_signal"`
	RSI            float64          `json:"rsi"`
	EMA20          float64          `json:"ema_20"`
	EMA50          float64          `json:"ema_50"`
	EMA200         *float64         `json:"ema_200"`
}

// AnalyzeTimeframe summarises a single series. Only the execution role
// produces an entry signal.
func AnalyzeTimeframe(series *models.PriceSeries, role Role) (*TimeframeSummary, error) {
	if series.Len() < MinTimeframeBars {
		symbol := ""
		if series != nil {
			symbol = series.Symbol
		}
		return nil, apperrors.NewInsufficientDataError(symbol, series.Len(), MinTimeframeBars, 0)
	}

	candles := series.Bars
	n := len(candles)
	timeframe := series.Timeframe
	if timeframe == "" {
		timeframe = role.DefaultTimeframe()
	}

	summary := &TimeframeSummary{
		Timeframe:   timeframe,
		Role:        role,
		Bars:        n,
		EntrySignal: EntryNone,
	}

	ema20, err := indicators.NewEMA(20).Calculate(candles)
	if err != nil {
		return nil, err
	}
	ema50, err := indicators.NewEMA(50).Calculate(candles)
	if err != nil {
		return nil, err
	}
	summary.EMA20 = ema20[n-1]
	summary.EMA50 = ema50[n-1]
	if ema200, err := indicators.NewEMA(200).Calculate(candles); err == nil {
		v := ema200[n-1]
		summary.EMA200 = &v
	}

	summary.TrendDirection, summary.TrendStrength = emaTrend(summary.EMA20, summary.EMA50, summary.EMA200)

	rsi, err := indicators.NewRSI(indicators.RSIPeriod).Calculate(candles)
	if err != nil {
		return nil, err
	}
	summary.RSI = rsi[n-1]
	summary.MomentumSignal = buckets.TimeframeMomentum.Lookup(summary.RSI)

	if role == RoleExecution {
		switch {
		case summary.TrendDirection == models.Bullish && summary.RSI < 40:
			summary.EntrySignal = EntryBuy
		case summary.TrendDirection == models.Bearish && summary.RSI > 60:
			summary.EntrySignal = EntrySell
		}
	}

	return summary, nil
}

// emaTrend reads direction and a 0-10 strength from EMA ordering. Without
// EMA200 only the 20-vs-50 rule applies.
func emaTrend(ema20, ema50 float64, ema200 *float64) (models.Direction, float64) {
	if ema200 != nil {
		switch {
		case ema20 > ema50 && ema50 > *ema200:
			return models.Bullish, 8.0
		case ema20 < ema50 && ema50 < *ema200:
			return models.Bearish, 2.0
		}
	}
	switch {
	case ema20 > ema50:
		return models.Bullish, 6.0
	case ema20 < ema50:
		return models.Bearish, 4.0
	default:
		return models.Neutral, 5.0
	}
}
